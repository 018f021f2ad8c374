package worker

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/line-relay/pkg/line"
	"github.com/zoff-tech/line-relay/pkg/queue"
)

// Loading drains the loading queue: it starts the typing/loading
// indicator in the user's chat. Fire-and-forget; a terminal failure is
// dropped without notifying anyone.
type Loading struct {
	queues *queue.Store
	client line.Client
	sched  queue.Scheduler
	cfg    Config
	logger *slog.Logger
	tracer trace.Tracer
}

func NewLoading(queues *queue.Store, client line.Client, sched queue.Scheduler, cfg Config, logger *slog.Logger) *Loading {
	return &Loading{
		queues: queues,
		client: client,
		sched:  sched,
		cfg:    cfg,
		logger: logger,
		tracer: otel.Tracer("line-relay"),
	}
}

func (w *Loading) Name() string { return "loading" }

func (w *Loading) RunOnce(ctx context.Context) {
	item, ok := w.queues.Loading.Pop()
	if !ok {
		return
	}
	item = item.Touch()

	ctx, span := w.tracer.Start(ctx, "worker.loading", trace.WithAttributes(
		attribute.String("item.id", item.ID),
		attribute.Int("item.attempt", item.Attempt),
	))
	defer span.End()

	chatID := item.Envelope.Event.Source.UserID
	w.logger.Info("sending loading indicator", "worker", w.Name(), "chat_id", chatID, "attempt", item.Attempt)

	if err := w.client.StartLoading(ctx, chatID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.logger.Error("loading indicator failed", "worker", w.Name(), "chat_id", chatID, "error", err)

		item.Attempt++
		if item.Attempt > w.cfg.MaxAttempts {
			w.logger.Warn("giving up on loading indicator", "worker", w.Name(), "chat_id", chatID)
			return
		}
		w.sched.After(w.cfg.Retry.Next(), func() { w.queues.Loading.Push(item) })
		return
	}

	w.logger.Info("loading indicator sent", "worker", w.Name(), "chat_id", chatID)
}
