package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/auth"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/config"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/domain"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/enrich"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/events"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/fetch"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/logger"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/resolve"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/storage"
	"github.com/samvad-hq/samvad-comment-ingestor/pkg/httpclient"
	"github.com/samvad-hq/samvad-comment-ingestor/pkg/publishers"
)

const eventSource = "comments"

// batchFetcher retrieves one cycle's raw comments.
type batchFetcher interface {
	FetchBatch(ctx context.Context, since time.Time) []domain.RawComment
}

// batchResolver resolves a batch of raw comments into reports.
type batchResolver interface {
	RunBatch(ctx context.Context, items []domain.RawComment) []domain.Report
}

// reportEnricher optionally fills in missing original-post content.
type reportEnricher interface {
	Enrich(ctx context.Context, reports []domain.Report) []domain.Report
}

// Ingestor represents the comment ingestion runtime. It drives the fetch loop
// on a fixed cadence, owns the watermark, and hands each cycle's normalized
// reports to storage and the publisher fanout.
type Ingestor struct {
	cfg           *config.Config
	fetcher       batchFetcher
	aggregator    batchResolver
	enricher      reportEnricher
	store         storage.Store
	fanout        *publishers.Fanout
	bus           *events.Bus
	fetchInterval time.Duration
	log           logger.Logger

	// lastFetched is the watermark: the lower bound of the next fetch window.
	// It advances to "now" right before each request goes out, so a failed
	// cycle's window is not re-fetched.
	lastFetched time.Time
}

// NewIngestor builds an ingestor runtime from config files.
func NewIngestor(ctx context.Context, cfg *config.Config, log logger.Logger) (*Ingestor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	bus := events.NewBus()
	bus.Subscribe(func(evt events.Event) {
		log.ErrorObj("pipeline error", evt.Name, map[string]any{
			"error": evt.Err.Error(),
			"at":    evt.At.UTC(),
		})
	})

	client := httpclient.NewRestyClient(cfg.RequestTimeout)
	authMgr := auth.NewManager(client, cfg.LoginURL(), cfg.UpstreamUsername, cfg.UpstreamPassword)
	fetcher := fetch.NewFetcher(client, authMgr, bus, cfg.CommentURL(), cfg.UpstreamRPS)

	storeOpts := storage.Options{
		ReportTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"report_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	resolver := resolve.NewResolver(store, bus, cfg.MediaBaseURL, cfg.PlaceholderContent)
	aggregator := resolve.NewAggregator(resolver, cfg.MaxConcurrentLookups)

	var enricher reportEnricher
	if cfg.EnrichUnlinked {
		enricher = enrich.NewScraper(client, cfg.EnrichDelay())
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	return &Ingestor{
		cfg:           cfg,
		fetcher:       fetcher,
		aggregator:    aggregator,
		enricher:      enricher,
		store:         store,
		fanout:        fanout,
		bus:           bus,
		fetchInterval: cfg.FetchInterval,
		log:           log,
	}, nil
}

// Run starts the fetch loop until the context is cancelled.
func (ing *Ingestor) Run(ctx context.Context) error {
	if ing == nil || ing.fetcher == nil {
		return fmt.Errorf("ingestor is not initialized")
	}
	defer ing.closeStore()

	ing.log.InfoObj("ingestor loop starting", "ingestor_state", map[string]any{
		"comment_url":      ing.cfg.CommentURL(),
		"publishers_count": ing.fanout.Size(),
		"fetch_interval":   ing.fetchInterval.String(),
	})

	if err := ing.runOnce(ctx); err != nil {
		ing.log.ErrorObj("initial fetch cycle failed", "error", err)
	}

	ticker := time.NewTicker(ing.fetchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ing.log.InfoObj("ingestor loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := ing.runOnce(ctx); err != nil {
				ing.log.ErrorObj("fetch cycle failed", "error", err)
			}
		}
	}
}

// runOnce performs a single fetch-resolve-publish cycle.
func (ing *Ingestor) runOnce(ctx context.Context) error {
	start := time.Now()
	since := ing.lastFetched
	ing.lastFetched = start

	raw := ing.fetcher.FetchBatch(ctx, since)
	reports := ing.aggregator.RunBatch(ctx, raw)
	if ing.enricher != nil {
		reports = ing.enricher.Enrich(ctx, reports)
	}

	var errs []error
	published := 0
	for _, report := range reports {
		if err := ing.store.SaveReport(report); err != nil {
			errs = append(errs, fmt.Errorf("save report %s: %w", report.ID, err))
		}
		if _, err := ing.fanout.Publish(ctx, publishers.NewEvent(eventSource, report)); err != nil {
			errs = append(errs, fmt.Errorf("publish report %s: %w", report.ID, err))
		} else {
			published++
		}
	}

	ing.log.InfoObj("fetch cycle completed", "cycle_meta", map[string]any{
		"raw_items":  len(raw),
		"reports":    len(reports),
		"published":  published,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return errors.Join(errs...)
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (ing *Ingestor) closeStore() {
	if ing == nil || ing.store == nil {
		return
	}
	if err := ing.store.Close(); err != nil {
		ing.log.ErrorObj("storage close failed", "error", err)
	}
}
