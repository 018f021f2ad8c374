// Package dispatch ingests webhook events: it verifies the request,
// classifies each event, and seeds the work queues.
package dispatch

import (
	"log/slog"

	"github.com/zoff-tech/line-relay/pkg/queue"
	"github.com/zoff-tech/line-relay/pkg/relay"
)

const unsupportedNotice = "Unable to send: Unsupport message type"

// Dispatcher classifies inbound events and seeds the queues. Text goes
// straight to the outgoing queue; media kinds get a loading signal plus
// either a transcoding check (platform-hosted video/audio) or a direct
// download; anything unrecognized gets a fixed notice.
type Dispatcher struct {
	queues *queue.Store
	logger *slog.Logger
}

func NewDispatcher(queues *queue.Store, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{queues: queues, logger: logger}
}

func (d *Dispatcher) Dispatch(env relay.Envelope) {
	event := env.Event
	if event.Type == "message" {
		switch event.Message.Type {
		case relay.MessageText:
			d.queues.Outgoing.Push(relay.OutgoingMessage{
				Envelope: env,
				Text:     "Message store:\n" + event.Message.Text,
			})
			return

		case relay.MessageImage, relay.MessageFile:
			d.queues.Loading.Push(relay.NewWorkItem(env))
			d.queues.Downloading.Push(relay.NewWorkItem(env))
			return

		case relay.MessageVideo, relay.MessageAudio:
			d.queues.Loading.Push(relay.NewWorkItem(env))
			if event.Message.ContentProvider.Type == relay.ProviderLine {
				d.queues.Transcoding.Push(relay.NewWorkItem(env))
			} else {
				d.queues.Downloading.Push(relay.NewWorkItem(env))
			}
			return
		}
	}

	d.logger.Warn("unsupported event", "event_type", event.Type, "message_type", string(event.Message.Type))
	d.queues.Outgoing.Push(relay.OutgoingMessage{
		Envelope: env,
		Text:     unsupportedNotice,
	})
}
