package worker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/line-relay/pkg/line"
	"github.com/zoff-tech/line-relay/pkg/queue"
	"github.com/zoff-tech/line-relay/pkg/relay"
	"github.com/zoff-tech/line-relay/pkg/store"
)

const receiptTimeLayout = "2006-01-02T15:04:05.000Z"

// Outgoing drains the outgoing queue: it composes the reply text with
// a receipt-timestamp footer, sends it on the event's reply token, and
// persists an audit record of the attempt. On terminal failure the
// record is persisted with the error attached instead of a receipt.
type Outgoing struct {
	queues   *queue.Store
	client   line.Client
	receipts store.ReceiptRepository
	sched    queue.Scheduler
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewOutgoing(queues *queue.Store, client line.Client, receipts store.ReceiptRepository, sched queue.Scheduler, cfg Config, logger *slog.Logger) *Outgoing {
	return &Outgoing{
		queues:   queues,
		client:   client,
		receipts: receipts,
		sched:    sched,
		cfg:      cfg,
		logger:   logger,
		tracer:   otel.Tracer("line-relay"),
	}
}

func (w *Outgoing) Name() string { return "outgoing" }

func (w *Outgoing) RunOnce(ctx context.Context) {
	msg, ok := w.queues.Outgoing.Pop()
	if !ok {
		return
	}
	msg = msg.Touch()

	ctx, span := w.tracer.Start(ctx, "worker.outgoing", trace.WithAttributes(
		attribute.Int("item.attempt", msg.Attempt),
	))
	defer span.End()

	env := msg.Envelope
	payload := line.TextMessage{
		Type: "text",
		Text: composeReply(msg.Text, env.Event),
	}
	// Quoting is only supported for these source message types.
	switch env.Event.Message.Type {
	case relay.MessageText, relay.MessageImage, relay.MessageVideo:
		payload.QuoteToken = env.Event.Message.QuoteToken
	}

	w.logger.Info("sending reply", "worker", w.Name(), "user_id", env.Destination, "attempt", msg.Attempt)

	receipt, err := w.client.SendReply(ctx, env.Event.ReplyToken, []line.TextMessage{payload})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.logger.Error("reply failed", "worker", w.Name(), "user_id", env.Destination, "error", err)

		msg.Attempt++
		if msg.Attempt > w.cfg.MaxAttempts {
			w.logger.Warn("giving up on reply", "worker", w.Name(), "user_id", env.Destination)
			msg.Error = err.Error()
			w.saveReceipt(ctx, msg)
			return
		}
		w.sched.After(w.cfg.Retry.Next(), func() { w.queues.Outgoing.Push(msg) })
		return
	}

	msg.Response = receipt
	w.saveReceipt(ctx, msg)
	w.logger.Info("reply sent", "worker", w.Name(), "user_id", env.Destination)
}

// saveReceipt is best effort: a failed audit write is logged but does
// not re-enqueue the message.
func (w *Outgoing) saveReceipt(ctx context.Context, msg relay.OutgoingMessage) {
	rec := store.ReceiptRecord{
		UserID:    msg.Envelope.Destination,
		MessageID: msg.Envelope.Event.Message.ID,
		Message:   msg,
		SavedAt:   time.Now().UTC(),
	}
	if err := w.receipts.Save(ctx, rec); err != nil {
		w.logger.Error("persisting receipt failed", "worker", w.Name(), "user_id", rec.UserID, "error", err)
	}
}

// composeReply normalizes the body (trimming each line) and appends
// the receipt timestamp footer.
func composeReply(body string, event relay.Event) string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	return text +
		"\n---------------------\nReceived: " +
		event.ReceivedAt().Format(receiptTimeLayout)
}
