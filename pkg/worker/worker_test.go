package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zoff-tech/line-relay/pkg/archive"
	"github.com/zoff-tech/line-relay/pkg/line"
	"github.com/zoff-tech/line-relay/pkg/queue"
	"github.com/zoff-tech/line-relay/pkg/relay"
	"github.com/zoff-tech/line-relay/pkg/store"
)

// Shared test doubles for the worker policies.

var testConfig = Config{
	MaxAttempts:   3,
	Retry:         queue.Window{Min: 3 * time.Second, Max: 10 * time.Second},
	TranscodeWait: queue.Window{Min: 10 * time.Second, Max: 60 * time.Second},
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeScheduler records deferred pushes instead of waiting; Fire runs
// them synchronously.
type fakeScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (s *fakeScheduler) After(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.fns = append(s.fns, fn)
}

func (s *fakeScheduler) Fire() {
	s.mu.Lock()
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

type fetchCall struct {
	url    string
	authed bool
}

type sentReply struct {
	token    string
	messages []line.TextMessage
}

type fakeLineClient struct {
	loadingErr   error
	loadingCalls []string

	status    string
	statusErr error

	content    map[string][]byte
	fetchErr   error
	fetchCalls []fetchCall

	receipt  *relay.ReplyReceipt
	replyErr error
	replies  []sentReply
}

func (f *fakeLineClient) StartLoading(_ context.Context, chatID string) error {
	f.loadingCalls = append(f.loadingCalls, chatID)
	return f.loadingErr
}

func (f *fakeLineClient) TranscodingStatus(context.Context, string) (string, error) {
	return f.status, f.statusErr
}

func (f *fakeLineClient) FetchContent(_ context.Context, url string, authed bool) ([]byte, error) {
	f.fetchCalls = append(f.fetchCalls, fetchCall{url: url, authed: authed})
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if data, ok := f.content[url]; ok {
		return data, nil
	}
	return []byte("content"), nil
}

func (f *fakeLineClient) SendReply(_ context.Context, token string, messages []line.TextMessage) (*relay.ReplyReceipt, error) {
	f.replies = append(f.replies, sentReply{token: token, messages: messages})
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	return f.receipt, nil
}

func (f *fakeLineClient) ContentBase() string { return "https://data.example.test" }

type fakeFileStore struct {
	files  map[string][]byte
	failed bool
}

func (f *fakeFileStore) WriteFile(name string, data []byte) error {
	if f.failed {
		return assert.AnError
	}
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	f.files[name] = data
	return nil
}

type fakeReceipts struct {
	saved []store.ReceiptRecord
	err   error
}

func (f *fakeReceipts) Save(_ context.Context, rec store.ReceiptRecord) error {
	f.saved = append(f.saved, rec)
	return f.err
}

func (f *fakeReceipts) Close(context.Context) error { return nil }

type patchCall struct {
	docID     string
	userID    string
	messageID string
}

type fakeArchive struct {
	uploadErr error
	uploads   []string // filenames
	titles    []string

	taskStatuses []archive.TaskInfo // consumed one per Task call
	taskErr      error

	patchErr    error
	patchCalls  []patchCall
	taskQueries int
}

func (f *fakeArchive) Upload(_ context.Context, _ []byte, filename, title string) (string, error) {
	f.uploads = append(f.uploads, filename)
	f.titles = append(f.titles, title)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "task-1", nil
}

func (f *fakeArchive) Task(context.Context, string) (archive.TaskInfo, error) {
	f.taskQueries++
	if f.taskErr != nil {
		return archive.TaskInfo{}, f.taskErr
	}
	if len(f.taskStatuses) == 0 {
		return archive.TaskInfo{Status: archive.TaskStarted}, nil
	}
	info := f.taskStatuses[0]
	if len(f.taskStatuses) > 1 {
		f.taskStatuses = f.taskStatuses[1:]
	}
	return info, nil
}

func (f *fakeArchive) PatchDocument(_ context.Context, docID, userID, messageID string) error {
	f.patchCalls = append(f.patchCalls, patchCall{docID: docID, userID: userID, messageID: messageID})
	return f.patchErr
}

func textEnvelope(dest, text string) relay.Envelope {
	return relay.Envelope{
		Destination: dest,
		Event: relay.Event{
			Type:       "message",
			ReplyToken: "reply-token",
			Timestamp:  1700000000000,
			Source:     relay.Source{Type: "user", UserID: "U123"},
			Message: relay.Message{
				Type:       relay.MessageText,
				ID:         "m1",
				QuoteToken: "q1",
				Text:       text,
			},
		},
	}
}

func mediaEnvelope(msgType relay.MessageType, provider relay.ProviderType) relay.Envelope {
	return relay.Envelope{
		Destination: "Udest",
		Event: relay.Event{
			Type:       "message",
			ReplyToken: "reply-token",
			Timestamp:  1700000000000,
			Source:     relay.Source{Type: "user", UserID: "U123"},
			Message: relay.Message{
				Type:       msgType,
				ID:         "m1",
				QuoteToken: "q1",
				ContentProvider: relay.ContentProvider{
					Type:               provider,
					OriginalContentURL: "https://cdn.example.test/orig",
					PreviewImageURL:    "",
				},
			},
		},
	}
}

func TestRunnerInvokesStepUntilCanceled(t *testing.T) {
	var mu sync.Mutex
	runs := 0
	step := stepFunc{name: "counting", fn: func(context.Context) {
		mu.Lock()
		runs++
		mu.Unlock()
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	runner := NewRunner(step, 5*time.Millisecond, testLogger)
	err := runner.Run(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, runs, 1)
}

type stepFunc struct {
	name string
	fn   func(context.Context)
}

func (s stepFunc) Name() string                { return s.name }
func (s stepFunc) RunOnce(ctx context.Context) { s.fn(ctx) }
