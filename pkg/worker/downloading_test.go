package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoff-tech/line-relay/pkg/queue"
	"github.com/zoff-tech/line-relay/pkg/relay"
)

func newDownloading(queues *queue.Store, client *fakeLineClient, files *fakeFileStore, sched *fakeScheduler) *Downloading {
	return NewDownloading(queues, client, files, sched, testConfig, []string{".pdf"}, testLogger)
}

func TestDownloadingImageSetStoresMainAndPreview(t *testing.T) {
	queues := queue.NewStore()
	client := &fakeLineClient{}
	files := &fakeFileStore{}
	sched := &fakeScheduler{}

	env := mediaEnvelope(relay.MessageImage, relay.ProviderLine)
	env.Event.Message.ImageSet = &relay.ImageSet{ID: "s9", Index: 2, Total: 3}
	queues.Downloading.Push(relay.NewWorkItem(env))

	newDownloading(queues, client, files, sched).RunOnce(context.Background())

	require.Len(t, client.fetchCalls, 2)
	assert.True(t, client.fetchCalls[0].authed)
	assert.True(t, client.fetchCalls[1].authed)
	assert.Contains(t, files.files, "img-Udest_m1-set_s9_2.jpg")
	assert.Contains(t, files.files, "img-Udest_m1-set_s9_2-preview.jpg")

	msg, ok := queues.Outgoing.Pop()
	require.True(t, ok)
	assert.Equal(t, "File store:\nimg-Udest_m1-set_s9_2.jpg\nimg-Udest_m1-set_s9_2-preview.jpg", msg.Text)
	assert.Zero(t, queues.Archival.Len())
}

func TestDownloadingExternalContentFetchedWithoutAuth(t *testing.T) {
	queues := queue.NewStore()
	client := &fakeLineClient{}
	files := &fakeFileStore{}
	sched := &fakeScheduler{}

	env := mediaEnvelope(relay.MessageAudio, relay.ProviderExternal)
	queues.Downloading.Push(relay.NewWorkItem(env))

	newDownloading(queues, client, files, sched).RunOnce(context.Background())

	require.Len(t, client.fetchCalls, 1)
	assert.False(t, client.fetchCalls[0].authed)
	assert.Equal(t, "https://cdn.example.test/orig", client.fetchCalls[0].url)
	assert.Contains(t, files.files, "audio-Udest_m1.ogg")
}

func TestDownloadingPdfIsEnqueuedForArchival(t *testing.T) {
	queues := queue.NewStore()
	client := &fakeLineClient{}
	files := &fakeFileStore{}
	sched := &fakeScheduler{}

	env := mediaEnvelope(relay.MessageFile, relay.ProviderLine)
	env.Event.Message.FileName = "Invoice March.PDF"
	queues.Downloading.Push(relay.NewWorkItem(env))

	newDownloading(queues, client, files, sched).RunOnce(context.Background())

	item, ok := queues.Archival.Pop()
	require.True(t, ok)
	assert.Equal(t, "Invoice March.PDF", item.OrigFilename)
	assert.Equal(t, []byte("content"), item.Content)
	assert.Contains(t, files.files, item.Filename)

	_, ok = queues.Outgoing.Pop()
	assert.True(t, ok)
}

func TestDownloadingFetchFailureSchedulesRetry(t *testing.T) {
	queues := queue.NewStore()
	client := &fakeLineClient{fetchErr: assert.AnError}
	files := &fakeFileStore{}
	sched := &fakeScheduler{}
	queues.Downloading.Push(relay.NewWorkItem(mediaEnvelope(relay.MessageImage, relay.ProviderLine)))

	newDownloading(queues, client, files, sched).RunOnce(context.Background())

	assert.Equal(t, 1, sched.Pending())
	sched.Fire()
	item, ok := queues.Downloading.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, item.Attempt)
	assert.Zero(t, queues.Outgoing.Len())
}

func TestDownloadingUnresolvableMessageCountsAsFailure(t *testing.T) {
	queues := queue.NewStore()
	client := &fakeLineClient{}
	files := &fakeFileStore{}
	sched := &fakeScheduler{}

	// a text message can end up here only by misclassification; it has
	// no downloadable content and is retried like any other failure
	queues.Downloading.Push(relay.NewWorkItem(textEnvelope("Udest", "hi")))

	newDownloading(queues, client, files, sched).RunOnce(context.Background())

	assert.Empty(t, client.fetchCalls)
	assert.Equal(t, 1, sched.Pending())
}

func TestDownloadingGivesUpWithNotice(t *testing.T) {
	queues := queue.NewStore()
	client := &fakeLineClient{fetchErr: assert.AnError}
	files := &fakeFileStore{}
	sched := &fakeScheduler{}

	item := relay.NewWorkItem(mediaEnvelope(relay.MessageImage, relay.ProviderLine))
	item.Attempt = 3
	queues.Downloading.Push(item)

	newDownloading(queues, client, files, sched).RunOnce(context.Background())

	assert.Zero(t, sched.Pending())
	msg, ok := queues.Outgoing.Pop()
	require.True(t, ok)
	assert.Equal(t, "Unable to download files", msg.Text)
}
