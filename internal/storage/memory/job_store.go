// Package memory provides in-memory storage implementations used for
// development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sailscout/sailscout/internal/crawler"
	"github.com/sailscout/sailscout/internal/vessel"
)

// ErrJobNotFound is returned when a job ID has no stored record.
var ErrJobNotFound = errors.New("job not found")

// JobStore provides an in-memory implementation for development/testing.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[string]crawler.Job
	listings map[string][]vessel.Listing
}

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:     make(map[string]crawler.Job),
		listings: make(map[string][]vessel.Listing),
	}
}

// CreateJob stores a new job in queued status.
func (s *JobStore) CreateJob(_ context.Context, job crawler.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return errors.New("job already exists")
	}
	s.jobs[job.ID] = job
	return nil
}

// UpdateJobStatus updates the status and counters for a job.
func (s *JobStore) UpdateJobStatus(
	_ context.Context,
	jobID string,
	status crawler.JobStatus,
	errText string,
	counters crawler.JobCounters,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.ErrorText = errText
	job.Counters = counters
	now := time.Now().UTC()
	if status == crawler.JobStatusRunning && job.Started == nil {
		job.Started = pointerTime(now)
	}
	if isTerminal(status) {
		job.Finished = pointerTime(now)
	}
	s.jobs[jobID] = job
	return nil
}

// GetJob fetches a job by ID.
func (s *JobStore) GetJob(_ context.Context, jobID string) (crawler.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return crawler.Job{}, ErrJobNotFound
	}
	return job, nil
}

// AppendListings adds brokerage results to a job.
func (s *JobStore) AppendListings(_ context.Context, jobID string, listings []vessel.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return ErrJobNotFound
	}
	s.listings[jobID] = append(s.listings[jobID], listings...)
	return nil
}

// ListListings returns the accumulated results for a job.
func (s *JobStore) ListListings(_ context.Context, jobID string) ([]vessel.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listings := s.listings[jobID]
	out := make([]vessel.Listing, len(listings))
	copy(out, listings)
	return out, nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}

func isTerminal(status crawler.JobStatus) bool {
	switch status {
	case crawler.JobStatusSucceeded, crawler.JobStatusFailed, crawler.JobStatusCanceled:
		return true
	default:
		return false
	}
}
