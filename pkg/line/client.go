package line

import (
	"context"

	"github.com/zoff-tech/line-relay/pkg/relay"
)

// TranscodingStatus values reported by the content API. Any value other
// than these two is treated as an error by the transcoding worker.
const (
	TranscodingSucceeded  = "succeeded"
	TranscodingProcessing = "processing"
)

// TextMessage is the reply payload sent back to the user. QuoteToken is
// only attached for message types that support quoting.
type TextMessage struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	QuoteToken string `json:"quoteToken,omitempty"`
}

// Client defines the platform operations the workers depend on.
type Client interface {
	// StartLoading shows the typing/loading indicator in the user's chat.
	StartLoading(ctx context.Context, chatID string) error
	// TranscodingStatus polls the media preparation state for a message.
	TranscodingStatus(ctx context.Context, messageID string) (string, error)
	// FetchContent downloads a content URL. authed attaches the channel
	// bearer token; external pre-signed URLs are fetched without it.
	FetchContent(ctx context.Context, url string, authed bool) ([]byte, error)
	// SendReply delivers messages on a reply token and returns the
	// delivery receipt.
	SendReply(ctx context.Context, replyToken string, messages []TextMessage) (*relay.ReplyReceipt, error)
	// ContentBase returns the data API base URL used to build content
	// download URLs.
	ContentBase() string
}
