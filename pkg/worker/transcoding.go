package worker

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/line-relay/pkg/line"
	"github.com/zoff-tech/line-relay/pkg/queue"
	"github.com/zoff-tech/line-relay/pkg/relay"
)

// Transcoding drains the transcoding queue: it polls the platform's
// media preparation state. Ready media moves to the downloading queue;
// media still in flight is re-pushed here after the longer wait window
// without touching the attempt counter.
type Transcoding struct {
	queues *queue.Store
	client line.Client
	sched  queue.Scheduler
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

func NewTranscoding(queues *queue.Store, client line.Client, sched queue.Scheduler, cfg Config, logger *slog.Logger) *Transcoding {
	return &Transcoding{
		queues: queues,
		client: client,
		sched:  sched,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("line-relay"),
	}
}

func (w *Transcoding) Name() string { return "transcoding" }

func (w *Transcoding) RunOnce(ctx context.Context) {
	item, ok := w.queues.Transcoding.Pop()
	if !ok {
		return
	}
	item = item.Touch()

	ctx, span := w.tracer.Start(ctx, "worker.transcoding", trace.WithAttributes(
		attribute.String("item.id", item.ID),
		attribute.Int("item.attempt", item.Attempt),
	))
	defer span.End()

	messageID := item.Envelope.Event.Message.ID
	w.logger.Info("checking transcoding status", "worker", w.Name(), "message_id", messageID, "attempt", item.Attempt)

	status, err := w.client.TranscodingStatus(ctx, messageID)
	if err == nil {
		switch status {
		case line.TranscodingSucceeded:
			w.queues.Downloading.Push(item)
			return
		case line.TranscodingProcessing:
			// Still in flight on the platform side. Not a failure: wait
			// out the transcoder and check again later.
			w.sched.After(w.cfg.TranscodeWait.Next(), func() { w.queues.Transcoding.Push(item) })
			return
		default:
			err = fmt.Errorf("unexpected transcoding status %q", status)
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	w.logger.Error("transcoding check failed", "worker", w.Name(), "message_id", messageID, "error", err)

	item.Attempt++
	if item.Attempt > w.cfg.MaxAttempts {
		w.logger.Warn("giving up on transcoding check", "worker", w.Name(), "message_id", messageID)
		w.queues.Outgoing.Push(relay.OutgoingMessage{
			Envelope: item.Envelope,
			Text:     "Unable to check transcoding status",
		})
		return
	}
	w.sched.After(w.cfg.Retry.Next(), func() { w.queues.Transcoding.Push(item) })
}
