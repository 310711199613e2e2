// Package crawl runs one crawl session: seed the frontier, visit pages
// one at a time with a randomized politeness delay, extract and normalize
// detail pages, and hand records to the persistence layer.
package crawl

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/sailscout/sailscout/internal/crawler"
	"github.com/sailscout/sailscout/internal/extract"
	"github.com/sailscout/sailscout/internal/frontier"
	"github.com/sailscout/sailscout/internal/metrics"
	"github.com/sailscout/sailscout/internal/normalize"
	"github.com/sailscout/sailscout/internal/persist"
	"github.com/sailscout/sailscout/internal/sites"
	"github.com/sailscout/sailscout/internal/vessel"
)

// Config carries the per-session pacing knobs.
type Config struct {
	DelayMin time.Duration
	DelayMax time.Duration
	MaxPages int
	Archive  bool
	Topic    string
}

// Orchestrator drives a single site crawl sequentially. One page is in
// flight at any time; concurrency across jobs is the worker pool's concern.
type Orchestrator struct {
	site      *sites.Site
	fetcher   crawler.Fetcher
	upserter  *persist.Upserter
	archive   crawler.BlobStore
	publisher crawler.Publisher
	hasher    crawler.Hasher
	logger    *zap.Logger

	// randIntn is swappable so tests can run with zero delay.
	randIntn func(n int) int
}

// New constructs an Orchestrator. Archive, publisher, and hasher are
// optional; a nil archive disables page archiving, a nil publisher
// disables change notifications.
func New(
	site *sites.Site,
	fetcher crawler.Fetcher,
	upserter *persist.Upserter,
	archive crawler.BlobStore,
	publisher crawler.Publisher,
	hasher crawler.Hasher,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if site == nil {
		return nil, fmt.Errorf("site is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if site.Schema() == sites.SchemaVessel && upserter == nil {
		return nil, fmt.Errorf("upserter is required for vessel sites")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		site:      site,
		fetcher:   fetcher,
		upserter:  upserter,
		archive:   archive,
		publisher: publisher,
		hasher:    hasher,
		logger:    logger,
		randIntn:  rand.Intn,
	}, nil
}

// recordChange is the notification payload published when an upsert
// created or updated a document.
type recordChange struct {
	JobID   string `json:"job_id"`
	Site    string `json:"site"`
	Model   string `json:"model"`
	Outcome string `json:"outcome"`
	URL     string `json:"url"`
}

// Run executes the session until the frontier drains, the page cap is
// reached, or the context ends. It returns the counters and any brokerage
// listings collected along the way. A canceled context surfaces as an
// error with partial counters.
func (o *Orchestrator) Run(ctx context.Context, jobID string, cfg Config) (crawler.JobCounters, []vessel.Listing, error) {
	counters := crawler.JobCounters{}
	var listings []vessel.Listing

	// seeds go in through the bypass path: an index root like a bare
	// boats-for-sale page carries neither the detail nor the pagination
	// marker, so the accept predicate would drop it
	front := frontier.New(o.site.Accept)
	for _, seed := range o.site.Seeds() {
		front.Seed(seed)
	}

	siteName := o.site.Name
	for {
		if err := ctx.Err(); err != nil {
			return counters, listings, fmt.Errorf("crawl canceled: %w", err)
		}
		if cfg.MaxPages > 0 && counters.PagesFetched+counters.PagesFailed >= cfg.MaxPages {
			o.logger.Info("page cap reached",
				zap.String("job_id", jobID),
				zap.Int("max_pages", cfg.MaxPages))
			break
		}
		url, ok := front.TakeNext()
		if !ok {
			break
		}
		metrics.SetFrontierPending(siteName, front.PendingLen())

		if err := o.pause(ctx, cfg); err != nil {
			return counters, listings, err
		}

		resp, err := o.fetcher.Fetch(ctx, crawler.FetchRequest{JobID: jobID, URL: url})
		front.MarkVisited(url)
		if err != nil {
			counters.PagesFailed++
			metrics.ObservePage(siteName, "error")
			o.logger.Warn("page fetch failed",
				zap.String("job_id", jobID),
				zap.String("url", url),
				zap.Error(err))
			continue
		}
		counters.PagesFetched++
		metrics.ObservePage(siteName, "success")
		metrics.ObserveFetch(siteName, transportLabel(resp.Rendered), resp.Duration)
		// redirects land on a different URL; mark it too so the frontier
		// never queues the destination separately
		if resp.URL != url {
			front.MarkVisited(resp.URL)
		}

		if cfg.Archive {
			o.archivePage(ctx, jobID, resp)
		}

		page, err := extract.Parse(resp.URL, resp.Body)
		if err != nil {
			o.logger.Warn("page parse failed",
				zap.String("job_id", jobID),
				zap.String("url", resp.URL),
				zap.Error(err))
			continue
		}
		for _, link := range page.Links {
			front.Offer(link)
		}

		if !o.site.IsDetail(resp.URL) {
			continue
		}
		switch o.site.Schema() {
		case sites.SchemaVessel:
			o.handleVessel(ctx, jobID, topicOrDefault(cfg.Topic), page, &counters)
		case sites.SchemaListing:
			listing := normalize.Listing(page)
			listings = append(listings, listing)
			counters.ListingsSeen++
			metrics.ObserveListing(siteName)
			o.logger.Info("listing extracted",
				zap.String("job_id", jobID),
				zap.String("model", listing.Model),
				zap.Int("price", listing.Price),
				zap.Int("year", listing.Year),
				zap.Int("feet", listing.Feet))
		}
	}

	metrics.SetFrontierPending(siteName, front.PendingLen())
	o.logger.Info("crawl session finished",
		zap.String("job_id", jobID),
		zap.Int("pages_fetched", counters.PagesFetched),
		zap.Int("pages_failed", counters.PagesFailed),
		zap.Int("records_created", counters.RecordsCreated),
		zap.Int("records_updated", counters.RecordsUpdated),
		zap.Int("records_unchanged", counters.RecordsUnchanged),
		zap.Int("listings_seen", counters.ListingsSeen))
	return counters, listings, nil
}

func (o *Orchestrator) handleVessel(ctx context.Context, jobID, topic string, page *extract.RawPage, counters *crawler.JobCounters) {
	rec := normalize.Vessel(page)
	if rec.Key() == "" {
		o.logger.Warn("detail page without model title",
			zap.String("job_id", jobID),
			zap.String("url", page.URL))
		return
	}
	outcome, err := o.upserter.Upsert(ctx, rec)
	if err != nil {
		o.logger.Error("record upsert failed",
			zap.String("job_id", jobID),
			zap.String("model", rec.Model),
			zap.Error(err))
		return
	}
	metrics.ObserveRecord(o.site.Name, string(outcome))
	switch outcome {
	case persist.OutcomeCreated:
		counters.RecordsCreated++
	case persist.OutcomeUpdated:
		counters.RecordsUpdated++
	case persist.OutcomeUnchanged:
		counters.RecordsUnchanged++
	}
	o.logger.Debug("record persisted",
		zap.String("job_id", jobID),
		zap.String("model", rec.Model),
		zap.String("outcome", string(outcome)))

	if o.publisher == nil || outcome == persist.OutcomeUnchanged {
		return
	}
	change := recordChange{
		JobID:   jobID,
		Site:    o.site.Name,
		Model:   rec.Model,
		Outcome: string(outcome),
		URL:     rec.URL,
	}
	if _, err := o.publisher.Publish(ctx, topic, change); err != nil {
		o.logger.Warn("change notification failed",
			zap.String("job_id", jobID),
			zap.String("model", rec.Model),
			zap.Error(err))
	}
}

func (o *Orchestrator) archivePage(ctx context.Context, jobID string, resp crawler.FetchResponse) {
	if o.archive == nil {
		return
	}
	name := resp.URL
	if o.hasher != nil {
		if digest, err := o.hasher.Hash([]byte(resp.URL)); err == nil {
			name = digest
		}
	}
	path := fmt.Sprintf("jobs/%s/%s.html", jobID, name)
	uri, err := o.archive.PutObject(ctx, path, "text/html; charset=utf-8", resp.Body)
	if err != nil {
		o.logger.Warn("page archive failed",
			zap.String("job_id", jobID),
			zap.String("url", resp.URL),
			zap.Error(err))
		return
	}
	o.logger.Debug("page archived",
		zap.String("job_id", jobID),
		zap.String("blob_uri", uri))
}

// pause sleeps a random duration in [DelayMin, DelayMax] before the next
// visit. The jitter keeps the request cadence from looking mechanical.
func (o *Orchestrator) pause(ctx context.Context, cfg Config) error {
	delay := cfg.DelayMin
	if spread := cfg.DelayMax - cfg.DelayMin; spread > 0 {
		delay += time.Duration(o.randIntn(int(spread)))
	}
	if delay <= 0 {
		return nil
	}
	metrics.ObserveDelay(o.site.Name, delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("crawl canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return "vessel-changes"
	}
	return topic
}

func transportLabel(rendered bool) string {
	if rendered {
		return "headless"
	}
	return "http"
}
