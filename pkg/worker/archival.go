package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/line-relay/pkg/archive"
	"github.com/zoff-tech/line-relay/pkg/queue"
	"github.com/zoff-tech/line-relay/pkg/relay"
)

// Archival drains the archival queue: it uploads the stored file to
// the document-archival system, polls the consume task to a terminal
// state, and on success patches the originating user and message ids
// onto the document. The poll blocks the invocation (the runner drops
// ticks meanwhile) and is bounded by a wall-clock budget; exhausting
// the budget counts as a failed attempt. Terminal failures are dropped
// silently.
type Archival struct {
	queues       *queue.Store
	client       archive.Client
	sched        queue.Scheduler
	cfg          Config
	pollInterval time.Duration
	pollBudget   time.Duration
	logger       *slog.Logger
	tracer       trace.Tracer
}

func NewArchival(queues *queue.Store, client archive.Client, sched queue.Scheduler, cfg Config, pollInterval, pollBudget time.Duration, logger *slog.Logger) *Archival {
	return &Archival{
		queues:       queues,
		client:       client,
		sched:        sched,
		cfg:          cfg,
		pollInterval: pollInterval,
		pollBudget:   pollBudget,
		logger:       logger,
		tracer:       otel.Tracer("line-relay"),
	}
}

func (w *Archival) Name() string { return "archival" }

func (w *Archival) RunOnce(ctx context.Context) {
	item, ok := w.queues.Archival.Pop()
	if !ok {
		return
	}
	item = item.Touch()

	ctx, span := w.tracer.Start(ctx, "worker.archival", trace.WithAttributes(
		attribute.String("item.filename", item.Filename),
		attribute.Int("item.attempt", item.Attempt),
	))
	defer span.End()

	userID := item.Envelope.Destination
	messageID := item.Envelope.Event.Message.ID
	w.logger.Info("uploading document", "worker", w.Name(), "user_id", userID,
		"message_id", messageID, "filename", item.Filename, "attempt", item.Attempt)

	taskID, err := w.client.Upload(ctx, item.Content, item.Filename, item.OrigFilename)
	if err != nil {
		w.fail(span, item, err)
		return
	}

	docID, err := w.awaitTask(ctx, taskID)
	if err != nil {
		w.fail(span, item, err)
		return
	}

	if docID != "" {
		if err := w.client.PatchDocument(ctx, docID, userID, messageID); err != nil {
			w.fail(span, item, err)
			return
		}
	}
	w.logger.Info("document archived", "worker", w.Name(), "filename", item.Filename, "document_id", docID)
}

// awaitTask polls the consume task until it is terminal. It returns
// the related document id on success and "" when the consume failed
// (a failed consume is done, not retried).
func (w *Archival) awaitTask(ctx context.Context, taskID string) (string, error) {
	deadline := time.Now().Add(w.pollBudget)
	for {
		info, err := w.client.Task(ctx, taskID)
		if err != nil {
			return "", err
		}
		switch info.Status {
		case archive.TaskSuccess:
			return info.RelatedDocument, nil
		case archive.TaskFailure:
			return "", nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("task %s not terminal within %s", taskID, w.pollBudget)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *Archival) fail(span trace.Span, item relay.ArchivalItem, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	w.logger.Error("archival failed", "worker", w.Name(), "filename", item.Filename, "error", err)

	item.Attempt++
	if item.Attempt > w.cfg.MaxAttempts {
		w.logger.Warn("giving up on archival", "worker", w.Name(), "filename", item.Filename)
		return
	}
	w.sched.After(w.cfg.Retry.Next(), func() { w.queues.Archival.Push(item) })
}
