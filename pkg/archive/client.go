package archive

import "context"

// Task statuses reported by the archival system's async consume task.
// STARTED and PARSE are non-terminal; the worker keeps polling.
const (
	TaskStarted = "STARTED"
	TaskParse   = "PARSE"
	TaskSuccess = "SUCCESS"
	TaskFailure = "FAILURE"
)

// TaskInfo is the state of one consume task.
type TaskInfo struct {
	TaskID          string `json:"task_id"`
	Status          string `json:"status"`
	Result          string `json:"result,omitempty"`
	RelatedDocument string `json:"related_document,omitempty"`
}

// Terminal reports whether the task reached a final state.
func (t TaskInfo) Terminal() bool {
	return t.Status == TaskSuccess || t.Status == TaskFailure
}

// Client defines the document-archival operations the archival worker
// depends on.
type Client interface {
	// Upload posts a document for consumption and returns the async
	// task id tracking it.
	Upload(ctx context.Context, content []byte, filename, title string) (string, error)
	// Task fetches the current state of a consume task.
	Task(ctx context.Context, taskID string) (TaskInfo, error)
	// PatchDocument attaches the originating user and message ids to an
	// archived document's custom fields.
	PatchDocument(ctx context.Context, docID, userID, messageID string) error
}
