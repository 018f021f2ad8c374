package relay

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies an inbound platform message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageAudio MessageType = "audio"
	MessageFile  MessageType = "file"
)

// ProviderType classifies where a message's media content is hosted.
type ProviderType string

const (
	// ProviderLine means the content lives on the platform's content API
	// and must be fetched with a channel bearer token.
	ProviderLine ProviderType = "line"
	// ProviderExternal means the sender supplied pre-signed URLs; no
	// auth header is attached when fetching them.
	ProviderExternal ProviderType = "external"
)

// ContentProvider describes the origin of a media message's content.
type ContentProvider struct {
	Type               ProviderType `json:"type"`
	OriginalContentURL string       `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string       `json:"previewImageUrl,omitempty"`
}

// ImageSet groups images sent together as one album.
type ImageSet struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

// Message is the platform message payload. It is a tagged union over
// Type; only the fields relevant to a given type are populated.
type Message struct {
	Type       MessageType `json:"type"`
	ID         string      `json:"id"`
	QuoteToken string      `json:"quoteToken,omitempty"`

	// text
	Text string `json:"text,omitempty"`

	// image
	ImageSet *ImageSet `json:"imageSet,omitempty"`

	// video / audio
	Duration int64 `json:"duration,omitempty"`

	// file
	FileName string `json:"fileName,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`

	ContentProvider ContentProvider `json:"contentProvider,omitempty"`
}

// Source identifies who sent the event.
type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Event is one inbound webhook event. Immutable once ingested; workers
// never mutate it, only the wrapping work item.
type Event struct {
	Type           string  `json:"type"`
	Message        Message `json:"message"`
	WebhookEventID string  `json:"webhookEventId"`
	Timestamp      int64   `json:"timestamp"` // milliseconds since epoch
	Source         Source  `json:"source"`
	ReplyToken     string  `json:"replyToken"`
}

// ReceivedAt converts the event's millisecond timestamp to UTC time.
func (e Event) ReceivedAt() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// Envelope pairs an event with the bot destination it was delivered to.
type Envelope struct {
	Destination string `json:"destination"`
	Event       Event  `json:"event"`
}

// WorkItem wraps an envelope while it sits on the loading, transcoding
// or downloading queue. Attempt is 0 until a worker first touches the
// item; Touch normalizes it to 1.
type WorkItem struct {
	ID       string   `json:"id"`
	Envelope Envelope `json:"envelope"`
	Attempt  int      `json:"attempt,omitempty"`
}

// NewWorkItem wraps an envelope with a fresh correlation id.
func NewWorkItem(env Envelope) WorkItem {
	return WorkItem{ID: uuid.NewString(), Envelope: env}
}

// Touch returns the item with Attempt normalized to at least 1.
func (w WorkItem) Touch() WorkItem {
	if w.Attempt < 1 {
		w.Attempt = 1
	}
	return w
}

// SentMessage is one entry of a reply delivery receipt.
type SentMessage struct {
	ID         string `json:"id"`
	QuoteToken string `json:"quoteToken"`
}

// ReplyReceipt is the platform's acknowledgment of a delivered reply.
type ReplyReceipt struct {
	SentMessages []SentMessage `json:"sentMessages"`
}

// OutgoingMessage is a reply waiting on the outgoing queue: either a
// text echo, a worker's success summary, or a failure notice. After a
// successful send the delivery receipt is attached; after a terminal
// failure the error is.
type OutgoingMessage struct {
	Envelope Envelope      `json:"event"`
	Text     string        `json:"message"`
	Filename string        `json:"filename,omitempty"`
	Attempt  int           `json:"attempt,omitempty"`
	Response *ReplyReceipt `json:"response,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Touch returns the message with Attempt normalized to at least 1.
func (m OutgoingMessage) Touch() OutgoingMessage {
	if m.Attempt < 1 {
		m.Attempt = 1
	}
	return m
}

// ArchivalItem is a downloaded document waiting on the archival queue.
// Content holds the downloaded bytes; OrigFilename is the sender's
// original file name, used as the archive title.
type ArchivalItem struct {
	Envelope     Envelope `json:"event"`
	Attempt      int      `json:"attempt,omitempty"`
	Filename     string   `json:"filename"`
	OrigFilename string   `json:"origFilename"`
	Content      []byte   `json:"-"`
}

// Touch returns the item with Attempt normalized to at least 1.
func (a ArchivalItem) Touch() ArchivalItem {
	if a.Attempt < 1 {
		a.Attempt = 1
	}
	return a
}
