package queue

import "github.com/zoff-tech/line-relay/pkg/relay"

// Store bundles the five work queues. One Store is shared by the
// webhook dispatcher (producer) and all workers (consumers); it is
// passed in explicitly so workers stay testable in isolation.
type Store struct {
	Loading     *FIFO[relay.WorkItem]
	Transcoding *FIFO[relay.WorkItem]
	Downloading *FIFO[relay.WorkItem]
	Outgoing    *FIFO[relay.OutgoingMessage]
	Archival    *FIFO[relay.ArchivalItem]
}

// NewStore creates a Store with all five queues empty.
func NewStore() *Store {
	return &Store{
		Loading:     NewFIFO[relay.WorkItem](),
		Transcoding: NewFIFO[relay.WorkItem](),
		Downloading: NewFIFO[relay.WorkItem](),
		Outgoing:    NewFIFO[relay.OutgoingMessage](),
		Archival:    NewFIFO[relay.ArchivalItem](),
	}
}
