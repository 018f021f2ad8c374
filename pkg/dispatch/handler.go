package dispatch

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/zoff-tech/line-relay/pkg/relay"
)

// webhookBody is the platform's webhook envelope.
type webhookBody struct {
	Destination string        `json:"destination"`
	Events      []relay.Event `json:"events"`
}

// WebhookHandler verifies and decodes webhook deliveries before
// handing each event to the dispatcher.
type WebhookHandler struct {
	dispatcher    *Dispatcher
	channelSecret string
	allowed       map[string]struct{}
	logger        *slog.Logger
}

// NewWebhookHandler builds the handler. allowUserIDs is the set of
// accepted destinations; an empty destination is always tolerated.
func NewWebhookHandler(dispatcher *Dispatcher, channelSecret string, allowUserIDs []string, logger *slog.Logger) *WebhookHandler {
	allowed := make(map[string]struct{}, len(allowUserIDs))
	for _, id := range allowUserIDs {
		allowed[id] = struct{}{}
	}
	return &WebhookHandler{
		dispatcher:    dispatcher,
		channelSecret: channelSecret,
		allowed:       allowed,
		logger:        logger,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		http.Error(w, "Only JSON allowed", http.StatusBadRequest)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	if !h.validSignature(raw, r.Header.Get("X-Line-Signature")) {
		h.logger.Warn("webhook signature mismatch")
		http.Error(w, "Invalid signature", http.StatusForbidden)
		return
	}

	var body webhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		http.Error(w, "decoding body", http.StatusBadRequest)
		return
	}
	if !h.allowedDestination(body.Destination) {
		h.logger.Warn("webhook for unknown destination", "destination", body.Destination)
		http.Error(w, "unknown destination", http.StatusForbidden)
		return
	}

	for _, event := range body.Events {
		h.dispatcher.Dispatch(relay.Envelope{
			Destination: body.Destination,
			Event:       event,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"ok": http.StatusOK})
}

func (h *WebhookHandler) validSignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *WebhookHandler) allowedDestination(dest string) bool {
	if dest == "" {
		return true
	}
	_, ok := h.allowed[dest]
	return ok
}

// NewServeMux routes the webhook endpoint plus a liveness probe.
func NewServeMux(h *WebhookHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/webhook", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})
	return mux
}
