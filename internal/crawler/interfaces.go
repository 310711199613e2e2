package crawler

import (
	"context"
	"time"

	"github.com/sailscout/sailscout/internal/vessel"
)

// Fetcher retrieves a single document. Implementations make exactly one
// attempt; retry policy belongs to the caller.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Queue hands crawl jobs from the API to workers.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}

// JobStore persists job metadata and accumulated listing results.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errText string, counters JobCounters) error
	GetJob(ctx context.Context, jobID string) (Job, error)
	AppendListings(ctx context.Context, jobID string, listings []vessel.Listing) error
	ListListings(ctx context.Context, jobID string) ([]vessel.Listing, error)
}

// BlobStore archives fetched page bodies for later re-extraction.
type BlobStore interface {
	PutObject(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// Hasher fingerprints page bodies and URLs for archive object paths.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Publisher emits record-change notifications.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints job identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
