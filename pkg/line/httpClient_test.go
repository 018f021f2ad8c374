package line

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoff-tech/line-relay/pkg/config"
)

func newTestClient(srv *httptest.Server) Client {
	return NewClient(config.LineSettings{
		AccessToken:    "token-abc",
		APIBase:        srv.URL,
		ContentAPIBase: srv.URL,
		RequestTimeout: 5 * time.Second,
	})
}

func TestStartLoading(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := newTestClient(srv).StartLoading(context.Background(), "U123")

	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/chat/loading/start", gotPath)
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, map[string]string{"chatId": "U123"}, gotBody)
}

func TestStartLoadingRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := newTestClient(srv).StartLoading(context.Background(), "U123")
	assert.ErrorContains(t, err, "status 429")
}

func TestTranscodingStatus(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		io.WriteString(w, `{"status": "succeeded"}`)
	}))
	defer srv.Close()

	status, err := newTestClient(srv).TranscodingStatus(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/message/m1/content/transcoding", gotPath)
	assert.Equal(t, TranscodingSucceeded, status)
}

func TestFetchContentAuthed(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("binary-data"))
	}))
	defer srv.Close()

	data, err := newTestClient(srv).FetchContent(context.Background(), srv.URL+"/v2/bot/message/m1/content", true)

	require.NoError(t, err)
	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, []byte("binary-data"), data)
}

func TestFetchContentExternalUnauthenticated(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchContent(context.Background(), srv.URL+"/external.jpg", false)

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestFetchContentNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchContent(context.Background(), srv.URL+"/gone", true)
	assert.ErrorContains(t, err, "not ready")
}

func TestSendReply(t *testing.T) {
	var gotPath string
	var gotBody struct {
		ReplyToken string        `json:"replyToken"`
		Messages   []TextMessage `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{"sentMessages": [{"id": "s1", "quoteToken": "q2"}]}`)
	}))
	defer srv.Close()

	receipt, err := newTestClient(srv).SendReply(context.Background(), "rt1", []TextMessage{
		{Type: "text", Text: "hello", QuoteToken: "q1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "/v2/bot/message/reply", gotPath)
	assert.Equal(t, "rt1", gotBody.ReplyToken)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "q1", gotBody.Messages[0].QuoteToken)
	require.Len(t, receipt.SentMessages, 1)
	assert.Equal(t, "s1", receipt.SentMessages[0].ID)
}

func TestSendReplyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SendReply(context.Background(), "rt1", nil)
	assert.ErrorContains(t, err, "status 400")
}
