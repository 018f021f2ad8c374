package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/line-relay/pkg/config"
	"github.com/zoff-tech/line-relay/pkg/relay"
)

type httpClient struct {
	http        *http.Client
	tracer      trace.Tracer
	accessToken string
	apiBase     string
	contentBase string
}

// NewClient builds the HTTP client for the Messaging API.
func NewClient(cfg config.LineSettings) Client {
	return &httpClient{
		http:        &http.Client{Timeout: cfg.RequestTimeout},
		tracer:      otel.Tracer("line-relay"),
		accessToken: cfg.AccessToken,
		apiBase:     strings.TrimRight(cfg.APIBase, "/"),
		contentBase: strings.TrimRight(cfg.ContentAPIBase, "/"),
	}
}

func (c *httpClient) ContentBase() string {
	return c.contentBase
}

func (c *httpClient) StartLoading(ctx context.Context, chatID string) error {
	ctx, span := c.tracer.Start(ctx, "line.StartLoading",
		trace.WithAttributes(attribute.String("line.chat_id", chatID)),
	)
	defer span.End()

	payload, err := json.Marshal(map[string]string{"chatId": chatID})
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, c.apiBase+"/v2/bot/chat/loading/start", bytes.NewReader(payload), true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		err := fmt.Errorf("loading indicator rejected: status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *httpClient) TranscodingStatus(ctx context.Context, messageID string) (string, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content/transcoding", c.contentBase, messageID)
	ctx, span := c.tracer.Start(ctx, "line.TranscodingStatus",
		trace.WithAttributes(attribute.String("line.message_id", messageID)),
	)
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, url, nil, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("decoding transcoding status: %w", err)
	}

	span.SetAttributes(attribute.String("line.transcoding_status", body.Status))
	return body.Status, nil
}

func (c *httpClient) FetchContent(ctx context.Context, url string, authed bool) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "line.FetchContent",
		trace.WithAttributes(attribute.Bool("line.authed", authed)),
	)
	defer span.End()

	resp, err := c.do(ctx, http.MethodGet, url, nil, authed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("file not ready to be downloaded: status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("line.content_size_bytes", len(data)))
	return data, nil
}

func (c *httpClient) SendReply(ctx context.Context, replyToken string, messages []TextMessage) (*relay.ReplyReceipt, error) {
	ctx, span := c.tracer.Start(ctx, "line.SendReply",
		trace.WithAttributes(attribute.Int("line.message_count", len(messages))),
	)
	defer span.End()

	payload, err := json.Marshal(map[string]any{
		"replyToken": replyToken,
		"messages":   messages,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, c.apiBase+"/v2/bot/message/reply", bytes.NewReader(payload), true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("reply rejected: status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var receipt relay.ReplyReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("decoding reply receipt: %w", err)
	}
	return &receipt, nil
}

func (c *httpClient) do(ctx context.Context, method, url string, body io.Reader, authed bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	return c.http.Do(req)
}

var _ Client = (*httpClient)(nil)
