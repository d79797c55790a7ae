package service

import (
	"context"
	"sync"
	"time"

	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/service/cache"
	"github.com/kapu/trendwatch-go/internal/service/sentiment"
	"github.com/kapu/trendwatch-go/internal/util"
	"go.uber.org/zap"
)

const snapshotCacheTTL = 2 * time.Hour

// Snapshot is one fully assembled and labeled dataset, the unit every
// read path serves from.
type Snapshot struct {
	Dataset     *domain.Dataset `json:"dataset"`
	RefreshedAt time.Time       `json:"refreshed_at"`
}

// RefresherService owns the render-pass loop: collect, classify, swap the
// in-memory snapshot, persist it to Redis for warm starts, then notify
// listeners. Reads never block a refresh in progress.
type RefresherService struct {
	collector *CollectorService
	labeler   *sentiment.Labeler
	cache     *cache.Service
	interval  time.Duration
	logger    *zap.Logger

	mu      sync.RWMutex
	current *Snapshot

	notifyMu  sync.Mutex
	notifyFns []func(*Snapshot)
}

func NewRefresherService(collector *CollectorService, labeler *sentiment.Labeler, cacheSvc *cache.Service, interval time.Duration, logger *zap.Logger) *RefresherService {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &RefresherService{
		collector: collector,
		labeler:   labeler,
		cache:     cacheSvc,
		interval:  interval,
		logger:    logger,
	}
}

// OnRefresh registers a listener invoked after every successful refresh.
func (r *RefresherService) OnRefresh(fn func(*Snapshot)) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	r.notifyFns = append(r.notifyFns, fn)
}

// Snapshot returns the current dataset snapshot, or nil before the first
// successful refresh.
func (r *RefresherService) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Refresh runs one full pipeline pass. On collection failure the previous
// snapshot stays in place and the error is returned.
func (r *RefresherService) Refresh(ctx context.Context) (*Snapshot, error) {
	started := util.NowIST()

	dataset, err := r.collector.Collect(ctx, started)
	if err != nil {
		return nil, err
	}

	labels := r.labeler.ClassifyTags(ctx, dataset.Tags())
	dataset.ApplySentiment(labels)

	snapshot := &Snapshot{
		Dataset:     dataset,
		RefreshedAt: started,
	}

	r.mu.Lock()
	r.current = snapshot
	r.mu.Unlock()

	if r.cache != nil {
		r.cache.SetDataset(ctx, dataset, snapshotCacheTTL)
	}

	r.logger.Info("Snapshot refreshed",
		zap.Int("records", dataset.Len()),
		zap.Int("tags", len(labels)),
		zap.Duration("took", time.Since(started)))

	r.notify(snapshot)
	return snapshot, nil
}

// Start performs the initial refresh (warm-starting from Redis if the
// scrape fails) and then loops on the configured interval until ctx ends.
func (r *RefresherService) Start(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil {
		r.logger.Warn("Initial refresh failed", zap.Error(err))
		r.warmStart(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Refresher stopped")
			return
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil {
				r.logger.Warn("Scheduled refresh failed, keeping previous snapshot", zap.Error(err))
			}
		}
	}
}

// warmStart restores the last persisted dataset so the dashboard can serve
// stale-but-present data until a scrape succeeds.
func (r *RefresherService) warmStart(ctx context.Context) {
	if r.cache == nil {
		return
	}

	dataset, ok := r.cache.GetDataset(ctx)
	if !ok {
		return
	}

	snapshot := &Snapshot{
		Dataset:     dataset,
		RefreshedAt: util.NowIST(),
	}

	r.mu.Lock()
	if r.current == nil {
		r.current = snapshot
	}
	r.mu.Unlock()

	r.logger.Info("Warm-started snapshot from cache", zap.Int("records", dataset.Len()))
}

func (r *RefresherService) notify(snapshot *Snapshot) {
	r.notifyMu.Lock()
	fns := make([]func(*Snapshot), len(r.notifyFns))
	copy(fns, r.notifyFns)
	r.notifyMu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
