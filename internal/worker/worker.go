// Package worker implements the crawl job execution loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sailscout/sailscout/internal/crawl"
	"github.com/sailscout/sailscout/internal/crawler"
	"github.com/sailscout/sailscout/internal/metrics"
)

// Config carries pacing defaults applied when a job omits its own.
type Config struct {
	DelayMin time.Duration
	DelayMax time.Duration
	Topic    string
}

// Worker consumes queue items and runs one crawl session per job.
type Worker struct {
	queue         crawler.Queue
	jobStore      crawler.JobStore
	orchestrators map[string]*crawl.Orchestrator
	cancels       *CancelRegistry
	cfg           Config
	logger        *zap.Logger
}

// New constructs a Worker. The orchestrators map is keyed by site name.
func New(
	queue crawler.Queue,
	jobStore crawler.JobStore,
	orchestrators map[string]*crawl.Orchestrator,
	cancels *CancelRegistry,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cancels == nil {
		cancels = NewCancelRegistry()
	}
	return &Worker{
		queue:         queue,
		jobStore:      jobStore,
		orchestrators: orchestrators,
		cancels:       cancels,
		cfg:           cfg,
		logger:        logger,
	}
}

// Run blocks, consuming queue items until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued job", zap.String("job_id", item.JobID))
		w.processJob(ctx, item)
	}
}

func (w *Worker) processJob(ctx context.Context, item crawler.QueueItem) {
	job, err := w.jobStore.GetJob(ctx, item.JobID)
	if err != nil {
		w.logger.Error("job lookup failed", zap.String("job_id", item.JobID), zap.Error(err))
		return
	}
	// a cancel may have landed while the job sat in the queue
	if job.Status == crawler.JobStatusCanceled {
		w.logger.Info("skipping canceled job", zap.String("job_id", item.JobID))
		return
	}

	orchestrator, ok := w.orchestrators[item.Params.Site]
	if !ok {
		w.failJob(ctx, item.JobID, fmt.Sprintf("unknown site %q", item.Params.Site))
		return
	}

	counters := crawler.JobCounters{}
	if err := w.jobStore.UpdateJobStatus(ctx, item.JobID, crawler.JobStatusRunning, "", counters); err != nil {
		w.logger.Error("update job status failed", zap.String("job_id", item.JobID), zap.Error(err))
		return
	}

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	jobCtx, cancel := context.WithCancel(ctx)
	w.cancels.Register(item.JobID, cancel)
	defer w.cancels.Unregister(item.JobID)

	counters, listings, runErr := orchestrator.Run(jobCtx, item.JobID, w.sessionConfig(item.Params))

	if len(listings) > 0 {
		if err := w.jobStore.AppendListings(ctx, item.JobID, listings); err != nil {
			w.logger.Error("append listings failed", zap.String("job_id", item.JobID), zap.Error(err))
		}
	}

	status := crawler.JobStatusSucceeded
	errText := ""
	switch {
	case runErr == nil:
	case errors.Is(jobCtx.Err(), context.Canceled) && ctx.Err() == nil:
		status = crawler.JobStatusCanceled
	default:
		status = crawler.JobStatusFailed
		errText = runErr.Error()
	}

	if err := w.jobStore.UpdateJobStatus(ctx, item.JobID, status, errText, counters); err != nil {
		w.logger.Error("final job status update failed", zap.String("job_id", item.JobID), zap.Error(err))
	}
	metrics.ObserveJob(string(status))
	w.logger.Info("job finished",
		zap.String("job_id", item.JobID),
		zap.String("status", string(status)),
		zap.Int("pages_fetched", counters.PagesFetched),
		zap.Int("pages_failed", counters.PagesFailed))
}

func (w *Worker) failJob(ctx context.Context, jobID, reason string) {
	w.logger.Error("job rejected", zap.String("job_id", jobID), zap.String("reason", reason))
	if err := w.jobStore.UpdateJobStatus(ctx, jobID, crawler.JobStatusFailed, reason, crawler.JobCounters{}); err != nil {
		w.logger.Error("fail job status update", zap.String("job_id", jobID), zap.Error(err))
	}
	metrics.ObserveJob(string(crawler.JobStatusFailed))
}

func (w *Worker) sessionConfig(params crawler.JobParameters) crawl.Config {
	cfg := crawl.Config{
		DelayMin: w.cfg.DelayMin,
		DelayMax: w.cfg.DelayMax,
		MaxPages: params.MaxPages,
		Archive:  params.ArchivePages,
		Topic:    w.cfg.Topic,
	}
	if params.DelayMinMs > 0 {
		cfg.DelayMin = time.Duration(params.DelayMinMs) * time.Millisecond
	}
	if params.DelayMaxMs > 0 {
		cfg.DelayMax = time.Duration(params.DelayMaxMs) * time.Millisecond
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	return cfg
}
