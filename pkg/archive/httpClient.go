package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoff-tech/line-relay/pkg/config"
)

type httpClient struct {
	http          *http.Client
	tracer        trace.Tracer
	baseURL       string
	token         string
	correspondent string
	storagePath   string
	tags          string
	userField     int
	messageField  int
}

// NewClient builds the HTTP client for the archival system.
func NewClient(cfg config.ArchiveSettings) Client {
	return &httpClient{
		http:          &http.Client{Timeout: cfg.RequestTimeout},
		tracer:        otel.Tracer("line-relay"),
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		token:         cfg.Token,
		correspondent: cfg.Correspondent,
		storagePath:   cfg.StoragePath,
		tags:          cfg.Tags,
		userField:     cfg.UserField,
		messageField:  cfg.MessageField,
	}
}

func (c *httpClient) Upload(ctx context.Context, content []byte, filename, title string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "archive.Upload",
		trace.WithAttributes(
			attribute.String("archive.filename", filename),
			attribute.Int("archive.size_bytes", len(content)),
		),
	)
	defer span.End()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("document", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	fields := []struct{ name, value string }{
		{"title", title},
		{"correspondent", c.correspondent},
		{"storage_path", c.storagePath},
		{"tags", c.tags},
	}
	for _, f := range fields {
		if err := form.WriteField(f.name, f.value); err != nil {
			return "", err
		}
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents/post_document/", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unable to upload file: status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var taskID string
	if err := json.NewDecoder(resp.Body).Decode(&taskID); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("decoding upload task id: %w", err)
	}
	span.SetAttributes(attribute.String("archive.task_id", taskID))
	return taskID, nil
}

func (c *httpClient) Task(ctx context.Context, taskID string) (TaskInfo, error) {
	ctx, span := c.tracer.Start(ctx, "archive.Task",
		trace.WithAttributes(attribute.String("archive.task_id", taskID)),
	)
	defer span.End()

	u := fmt.Sprintf("%s/api/tasks/?task_id=%s", c.baseURL, url.QueryEscape(taskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return TaskInfo{}, err
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TaskInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unable to check file task: status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TaskInfo{}, err
	}

	var tasks []TaskInfo
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		span.RecordError(err)
		return TaskInfo{}, fmt.Errorf("decoding task info: %w", err)
	}
	if len(tasks) == 0 {
		err := fmt.Errorf("task %s not found", taskID)
		span.RecordError(err)
		return TaskInfo{}, err
	}
	span.SetAttributes(attribute.String("archive.task_status", tasks[0].Status))
	return tasks[0], nil
}

func (c *httpClient) PatchDocument(ctx context.Context, docID, userID, messageID string) error {
	ctx, span := c.tracer.Start(ctx, "archive.PatchDocument",
		trace.WithAttributes(attribute.String("archive.document_id", docID)),
	)
	defer span.End()

	payload, err := json.Marshal(map[string]any{
		"custom_fields": []map[string]any{
			{"field": c.userField, "value": userID},
			{"field": c.messageField, "value": messageID},
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/api/documents/%s/", c.baseURL, docID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("unable to patch document %s: status %d", docID, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var _ Client = (*httpClient)(nil)
