package worker

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/line-relay/pkg/line"
	"github.com/zoff-tech/line-relay/pkg/queue"
	"github.com/zoff-tech/line-relay/pkg/relay"
	"github.com/zoff-tech/line-relay/pkg/storage"
)

// Downloading drains the downloading queue: it resolves the message's
// content URLs, fetches each body, and persists it to the filestore.
// Archival-eligible files are additionally pushed to the archival
// queue; a success summary listing the stored names goes to the
// outgoing queue.
type Downloading struct {
	queues      *queue.Store
	client      line.Client
	files       storage.FileStore
	sched       queue.Scheduler
	cfg         Config
	archiveExts map[string]struct{}
	logger      *slog.Logger
	tracer      trace.Tracer
}

func NewDownloading(queues *queue.Store, client line.Client, files storage.FileStore, sched queue.Scheduler, cfg Config, archiveExts []string, logger *slog.Logger) *Downloading {
	exts := make(map[string]struct{}, len(archiveExts))
	for _, ext := range archiveExts {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Downloading{
		queues:      queues,
		client:      client,
		files:       files,
		sched:       sched,
		cfg:         cfg,
		archiveExts: exts,
		logger:      logger,
		tracer:      otel.Tracer("line-relay"),
	}
}

func (w *Downloading) Name() string { return "downloading" }

func (w *Downloading) RunOnce(ctx context.Context) {
	item, ok := w.queues.Downloading.Pop()
	if !ok {
		return
	}
	item = item.Touch()

	ctx, span := w.tracer.Start(ctx, "worker.downloading", trace.WithAttributes(
		attribute.String("item.id", item.ID),
		attribute.Int("item.attempt", item.Attempt),
	))
	defer span.End()

	files, err := relay.ResolveFiles(item.Envelope, w.client.ContentBase())
	if err != nil {
		// No resolvable URL is counted against the same cap as a
		// transport error; there is no separate permanent path.
		w.fail(span, item, err)
		return
	}

	stored := make([]string, 0, len(files))
	for _, fd := range files {
		name := relay.SanitizeFilename(fd.Filename)

		data, err := w.client.FetchContent(ctx, fd.URL, fd.Authed())
		if err != nil {
			w.fail(span, item, err)
			return
		}
		if err := w.files.WriteFile(name, data); err != nil {
			w.fail(span, item, err)
			return
		}
		stored = append(stored, name)
		w.logger.Info("stored file", "worker", w.Name(), "destination", item.Envelope.Destination, "filename", name)

		if w.archivalEligible(name) {
			w.queues.Archival.Push(relay.ArchivalItem{
				Envelope:     item.Envelope,
				Filename:     name,
				OrigFilename: fd.OrigFilename,
				Content:      data,
			})
		}
	}

	w.queues.Outgoing.Push(relay.OutgoingMessage{
		Envelope: item.Envelope,
		Text:     "File store:\n" + strings.Join(stored, "\n"),
	})
}

func (w *Downloading) archivalEligible(name string) bool {
	_, ok := w.archiveExts[strings.ToLower(path.Ext(name))]
	return ok
}

func (w *Downloading) fail(span trace.Span, item relay.WorkItem, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	w.logger.Error("download failed", "worker", w.Name(), "destination", item.Envelope.Destination, "error", err)

	item.Attempt++
	if item.Attempt > w.cfg.MaxAttempts {
		w.logger.Warn("giving up on download", "worker", w.Name(), "destination", item.Envelope.Destination)
		w.queues.Outgoing.Push(relay.OutgoingMessage{
			Envelope: item.Envelope,
			Text:     "Unable to download files",
		})
		return
	}
	w.sched.After(w.cfg.Retry.Next(), func() { w.queues.Downloading.Push(item) })
}
