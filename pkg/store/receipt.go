package store

import (
	"context"
	"time"

	"github.com/zoff-tech/line-relay/pkg/relay"
)

// ReceiptRecord is the audit record persisted for every reply delivery
// attempt that reached a terminal state: either the delivery receipt
// after a successful send, or the final error after the retry cap.
type ReceiptRecord struct {
	UserID    string                `json:"user_id"`
	MessageID string                `json:"message_id"`
	Message   relay.OutgoingMessage `json:"message"`
	SavedAt   time.Time             `json:"saved_at"`
}

// ReceiptRepository defines the persistence operations for delivery
// receipts.
type ReceiptRepository interface {
	// Save persists one receipt record.
	Save(ctx context.Context, rec ReceiptRecord) error
	// Close cleans up any resources (connections).
	Close(ctx context.Context) error
}
