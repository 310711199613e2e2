// Package main wires together the sailscout crawler service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	gcpstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/sailscout/sailscout/internal/api"
	"github.com/sailscout/sailscout/internal/clock/system"
	"github.com/sailscout/sailscout/internal/config"
	"github.com/sailscout/sailscout/internal/crawl"
	"github.com/sailscout/sailscout/internal/crawler"
	"github.com/sailscout/sailscout/internal/dispatcher"
	collyfetch "github.com/sailscout/sailscout/internal/fetch/colly"
	"github.com/sailscout/sailscout/internal/fetch/headless"
	"github.com/sailscout/sailscout/internal/hash/sha256"
	"github.com/sailscout/sailscout/internal/id/uuid"
	"github.com/sailscout/sailscout/internal/logging"
	"github.com/sailscout/sailscout/internal/metrics"
	notifypubsub "github.com/sailscout/sailscout/internal/notify/pubsub"
	"github.com/sailscout/sailscout/internal/persist"
	queueMemory "github.com/sailscout/sailscout/internal/queue/memory"
	"github.com/sailscout/sailscout/internal/sites"
	"github.com/sailscout/sailscout/internal/storage/gcs"
	"github.com/sailscout/sailscout/internal/storage/local"
	memoryStorage "github.com/sailscout/sailscout/internal/storage/memory"
	"github.com/sailscout/sailscout/internal/storage/postgres"
	"github.com/sailscout/sailscout/internal/worker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("service failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg config.Config, logger *zap.Logger) error {
	docStore, closeDocStore, err := buildDocumentStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDocStore()
	upserter := persist.New(docStore)

	archive, closeArchive, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeArchive()
	hasher := sha256.New()

	var publisher crawler.Publisher
	if cfg.PubSub.Enabled {
		client, err := gcppubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fmt.Errorf("pubsub client: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("pubsub client close failed", zap.Error(err))
			}
		}()
		p := notifypubsub.New(client)
		defer p.Close()
		publisher = p
		logger.Info("pubsub publisher enabled",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.TopicName))
	}

	httpFetcher := collyfetch.New(collyfetch.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   time.Duration(cfg.Crawler.FetchTimeoutSec) * time.Second,
	})
	var headlessFetcher crawler.Fetcher = headless.NewNoop()
	headlessReady := false
	if cfg.Headless.Enabled {
		chromeFetcher, err := headless.NewChromedp(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Crawler.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Warn("headless fetcher init failed, headless sites will error", zap.Error(err))
		} else {
			defer chromeFetcher.Close()
			headlessFetcher = chromeFetcher
			headlessReady = true
		}
	}
	if names := headlessSiteNames(cfg.Sites); len(names) > 0 && !headlessReady {
		logger.Warn("headless rendering unavailable, these sites will fail every fetch",
			zap.Strings("sites", names),
			zap.Bool("headless_enabled", cfg.Headless.Enabled))
	}

	orchestrators := make(map[string]*crawl.Orchestrator, len(cfg.Sites))
	for name, siteCfg := range cfg.Sites {
		site, err := sites.New(name, siteCfg)
		if err != nil {
			return fmt.Errorf("site %q: %w", name, err)
		}
		var fetcher crawler.Fetcher = httpFetcher
		if site.Transport() == sites.TransportHeadless {
			fetcher = headlessFetcher
		}
		o, err := crawl.New(site, fetcher, upserter, archive, publisher, hasher, logger.Named("crawl").With(zap.String("site", name)))
		if err != nil {
			return fmt.Errorf("orchestrator %q: %w", name, err)
		}
		orchestrators[name] = o
	}

	queue := queueMemory.NewQueue(cfg.Crawler.QueueDepth)
	jobStore := memoryStorage.NewJobStore()
	cancels := worker.NewCancelRegistry()
	clock := system.New()
	idGen := uuid.New()

	workerCfg := worker.Config{
		DelayMin: cfg.DelayMin(),
		DelayMax: cfg.DelayMax(),
		Topic:    cfg.PubSub.TopicName,
	}
	var workers []*worker.Worker
	for i := 0; i < cfg.Crawler.Concurrency; i++ {
		workers = append(workers, worker.New(
			queue,
			jobStore,
			orchestrators,
			cancels,
			workerCfg,
			logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	dispatch := dispatcher.New(queue, workers, cancels)

	apiServer := api.NewServer(jobStore, dispatch, idGen, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started", zap.Int("workers", len(workers)))
		dispatch.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	queue.Close()
	logger.Info("shutdown complete")
	return nil
}

func buildDocumentStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (persist.DocumentStore, func(), error) {
	if cfg.DB.DSN == "" {
		logger.Info("using in-memory vessel store")
		return memoryStorage.NewVesselStore(), func() {}, nil
	}
	store, err := postgres.NewVesselStore(ctx, postgres.VesselStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("postgres vessel store: %w", err)
	}
	logger.Info("using postgres vessel store", zap.String("table", cfg.DB.Table))
	return store, store.Close, nil
}

func buildArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawler.BlobStore, func(), error) {
	noop := func() {}
	switch cfg.Archive.Backend {
	case "", "none":
		return nil, noop, nil
	case "local":
		store, err := local.New(local.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			return nil, nil, fmt.Errorf("local archive: %w", err)
		}
		logger.Info("page archive enabled", zap.String("backend", "local"), zap.String("dir", cfg.Archive.BaseDir))
		return store, noop, nil
	case "gcs":
		client, err := gcpstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("gcs client close failed", zap.Error(closeErr))
			}
			return nil, nil, fmt.Errorf("gcs archive: %w", err)
		}
		logger.Info("page archive enabled", zap.String("backend", "gcs"), zap.String("bucket", cfg.Archive.GCSBucket))
		closeClient := func() {
			if err := client.Close(); err != nil {
				logger.Warn("gcs client close failed", zap.Error(err))
			}
		}
		return store, closeClient, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

// headlessSiteNames lists the configured sites that need the headless
// transport, sorted for stable log output.
func headlessSiteNames(siteCfgs map[string]sites.Config) []string {
	var names []string
	for name, sc := range siteCfgs {
		if sc.Transport == sites.TransportHeadless {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
