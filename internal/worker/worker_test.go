package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sailscout/sailscout/internal/crawl"
	"github.com/sailscout/sailscout/internal/crawler"
	"github.com/sailscout/sailscout/internal/metrics"
	"github.com/sailscout/sailscout/internal/persist"
	queuemem "github.com/sailscout/sailscout/internal/queue/memory"
	"github.com/sailscout/sailscout/internal/sites"
	storemem "github.com/sailscout/sailscout/internal/storage/memory"
)

func init() {
	metrics.Init()
}

type stubFetcher struct {
	pages map[string]string
}

func (f *stubFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	body, ok := f.pages[req.URL]
	if !ok {
		return crawler.FetchResponse{}, fmt.Errorf("fetch %s: connection refused", req.URL)
	}
	return crawler.FetchResponse{URL: req.URL, StatusCode: 200, Body: []byte(body)}, nil
}

func testOrchestrator(t *testing.T) *crawl.Orchestrator {
	t.Helper()
	site, err := sites.New("specsheets", sites.Config{
		BaseURL:      "https://sbd.test",
		SeedURL:      "https://sbd.test/?page_number=0",
		DetailMarker: "/sailboat/",
		Transport:    sites.TransportHTTP,
		Schema:       sites.SchemaVessel,
	})
	require.NoError(t, err)

	fetcher := &stubFetcher{pages: map[string]string{
		"https://sbd.test/?page_number=0": `<html><body><a href="/sailboat/catalina-30">x</a></body></html>`,
		"https://sbd.test/sailboat/catalina-30": `<html><body><h1>Catalina 30</h1>
<table><tr><td>Hull Type:</td><td>Fin</td></tr></table></body></html>`,
	}}

	o, err := crawl.New(site, fetcher, persist.New(storemem.NewVesselStore()), nil, nil, nil, zap.NewNop())
	require.NoError(t, err)
	return o
}

func newTestWorker(t *testing.T) (*Worker, *storemem.JobStore, *queuemem.Queue) {
	t.Helper()
	jobStore := storemem.NewJobStore()
	queue := queuemem.NewQueue(4)
	w := New(queue, jobStore, map[string]*crawl.Orchestrator{"specsheets": testOrchestrator(t)},
		NewCancelRegistry(), Config{}, zap.NewNop())
	return w, jobStore, queue
}

func TestProcessJobRunsCrawlToCompletion(t *testing.T) {
	t.Parallel()

	w, jobStore, _ := newTestWorker(t)
	ctx := context.Background()

	require.NoError(t, jobStore.CreateJob(ctx, crawler.Job{ID: "job-1", Status: crawler.JobStatusQueued}))
	w.processJob(ctx, crawler.QueueItem{JobID: "job-1", Params: crawler.JobParameters{Site: "specsheets"}})

	job, err := jobStore.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, crawler.JobStatusSucceeded, job.Status)
	require.Equal(t, 2, job.Counters.PagesFetched)
	require.Equal(t, 1, job.Counters.RecordsCreated)
	require.NotNil(t, job.Started)
	require.NotNil(t, job.Finished)
}

func TestProcessJobUnknownSiteFails(t *testing.T) {
	t.Parallel()

	w, jobStore, _ := newTestWorker(t)
	ctx := context.Background()

	require.NoError(t, jobStore.CreateJob(ctx, crawler.Job{ID: "job-1", Status: crawler.JobStatusQueued}))
	w.processJob(ctx, crawler.QueueItem{JobID: "job-1", Params: crawler.JobParameters{Site: "nope"}})

	job, err := jobStore.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, crawler.JobStatusFailed, job.Status)
	require.Contains(t, job.ErrorText, "unknown site")
}

func TestProcessJobSkipsCanceledJob(t *testing.T) {
	t.Parallel()

	w, jobStore, _ := newTestWorker(t)
	ctx := context.Background()

	require.NoError(t, jobStore.CreateJob(ctx, crawler.Job{ID: "job-1", Status: crawler.JobStatusCanceled}))
	w.processJob(ctx, crawler.QueueItem{JobID: "job-1", Params: crawler.JobParameters{Site: "specsheets"}})

	job, err := jobStore.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, crawler.JobStatusCanceled, job.Status)
}

func TestRunConsumesQueueUntilContextEnds(t *testing.T) {
	t.Parallel()

	w, jobStore, queue := newTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, jobStore.CreateJob(ctx, crawler.Job{ID: "job-1", Status: crawler.JobStatusQueued}))
	require.NoError(t, queue.Enqueue(ctx, crawler.QueueItem{JobID: "job-1", Params: crawler.JobParameters{Site: "specsheets"}}))

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		job, err := jobStore.GetJob(context.Background(), "job-1")
		return err == nil && job.Status == crawler.JobStatusSucceeded
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

func TestSessionConfigPrefersJobParameters(t *testing.T) {
	t.Parallel()

	w := New(nil, nil, nil, nil, Config{DelayMin: time.Second, DelayMax: 3 * time.Second}, zap.NewNop())

	cfg := w.sessionConfig(crawler.JobParameters{DelayMinMs: 100, DelayMaxMs: 200, MaxPages: 7, ArchivePages: true})
	require.Equal(t, 100*time.Millisecond, cfg.DelayMin)
	require.Equal(t, 200*time.Millisecond, cfg.DelayMax)
	require.Equal(t, 7, cfg.MaxPages)
	require.True(t, cfg.Archive)

	cfg = w.sessionConfig(crawler.JobParameters{})
	require.Equal(t, time.Second, cfg.DelayMin)
	require.Equal(t, 3*time.Second, cfg.DelayMax)

	// inverted bounds collapse to the minimum
	cfg = w.sessionConfig(crawler.JobParameters{DelayMinMs: 500, DelayMaxMs: 100})
	require.Equal(t, cfg.DelayMin, cfg.DelayMax)
}

func TestCancelRegistry(t *testing.T) {
	t.Parallel()

	reg := NewCancelRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	reg.Register("job-1", cancel)

	require.True(t, reg.Cancel("job-1"))
	require.Error(t, ctx.Err())
	require.False(t, reg.Cancel("job-2"))

	reg.Unregister("job-1")
	require.False(t, reg.Cancel("job-1"))
}
