// Package crawler defines core types shared across subsystems.
package crawler

import (
	"net/http"
	"time"

	"github.com/sailscout/sailscout/internal/vessel"
)

// JobStatus represents the lifecycle state of a crawl job.
type JobStatus string

// Job status values persisted in the job store.
const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// JobParameters captures per-job knobs requested by the client.
type JobParameters struct {
	Site         string            `json:"site"`
	MaxPages     int               `json:"max_pages"`
	DelayMinMs   int               `json:"delay_min_ms" mapstructure:"delay_min_ms"`
	DelayMaxMs   int               `json:"delay_max_ms" mapstructure:"delay_max_ms"`
	ArchivePages bool              `json:"archive_pages" mapstructure:"archive_pages"`
	Tags         map[string]string `json:"tags,omitempty"`
}

// Job represents the metadata persisted for each submitted crawl request.
type Job struct {
	ID         string        `json:"id"`
	Status     JobStatus     `json:"status"`
	Submitted  time.Time     `json:"submitted_at"`
	Started    *time.Time    `json:"started_at,omitempty"`
	Finished   *time.Time    `json:"finished_at,omitempty"`
	ErrorText  string        `json:"error_text,omitempty"`
	Parameters JobParameters `json:"parameters"`
	Counters   JobCounters   `json:"counters"`
}

// JobCounters tracks pipeline stats per crawl run.
type JobCounters struct {
	PagesFetched     int `json:"pages_fetched"`
	PagesFailed      int `json:"pages_failed"`
	RecordsCreated   int `json:"records_created"`
	RecordsUpdated   int `json:"records_updated"`
	RecordsUnchanged int `json:"records_unchanged"`
	ListingsSeen     int `json:"listings_seen"`
}

// QueueItem is the unit of work handed from the API to a worker.
type QueueItem struct {
	JobID     string
	Params    JobParameters
	Submitted int64
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	JobID   string
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Rendered   bool
}

// JobResult is returned by the API result endpoint.
type JobResult struct {
	Job      Job              `json:"job"`
	Listings []vessel.Listing `json:"listings,omitempty"`
}
