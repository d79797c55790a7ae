package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kapu/trendwatch-go/internal/config"
	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/util"
	apperrors "github.com/kapu/trendwatch-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Source is one listing page to scrape: a live page (period Now or an
// hour-offset variant) or a top/tweeted history page.
type Source struct {
	URL      string
	Region   string
	Period   string
	HoursAgo int
	Live     bool
}

// CollectorService fans out fetch+parse across every configured source and
// merges the record batches in fixed source order. Individual source
// failures degrade to zero records; only an entirely empty result is an
// error (ErrNoData).
type CollectorService struct {
	fetcher     *FetcherService
	parser      *ParserService
	logger      *zap.Logger
	baseURL     string
	regions     []string
	maxRows     int
	hourOffsets []int
	concurrency int
}

func NewCollectorService(cfg config.TrendsConfig, fetcher *FetcherService, parser *ParserService, logger *zap.Logger) *CollectorService {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &CollectorService{
		fetcher:     fetcher,
		parser:      parser,
		logger:      logger,
		baseURL:     cfg.BaseURL,
		regions:     cfg.Regions,
		maxRows:     cfg.MaxRows,
		hourOffsets: cfg.HourOffsets,
		concurrency: concurrency,
	}
}

// Sources enumerates the listing pages for one render pass: the live page
// per region (plus any configured hour offsets) and the weekly, monthly
// and yearly top pages per region.
func (c *CollectorService) Sources() []Source {
	sources := make([]Source, 0)

	for _, region := range c.regions {
		sources = append(sources, Source{
			URL:    c.liveURL(region, 0),
			Region: region,
			Period: domain.PeriodNow,
			Live:   true,
		})

		for _, offset := range c.hourOffsets {
			if offset <= 0 {
				continue
			}
			sources = append(sources, Source{
				URL:      c.liveURL(region, offset),
				Region:   region,
				Period:   domain.PeriodHoursAgo(offset),
				HoursAgo: offset,
				Live:     true,
			})
		}

		for _, period := range []string{domain.PeriodWeek, domain.PeriodMonth, domain.PeriodYear} {
			sources = append(sources, Source{
				URL:    c.topURL(region, period),
				Region: region,
				Period: period,
			})
		}
	}

	return sources
}

// Collect runs one full scrape pass and assembles the merged dataset.
// now is the observation time; hour-offset sources date their records
// against it.
func (c *CollectorService) Collect(ctx context.Context, now time.Time) (*domain.Dataset, error) {
	sources := c.Sources()
	batches := make([][]domain.Record, len(sources))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(c.concurrency)
	for idx, src := range sources {
		idx, src := idx, src
		p.Go(func() {
			records := c.collectSource(ctx, src, now)
			mu.Lock()
			batches[idx] = records
			mu.Unlock()
		})
	}
	p.Wait()

	dataset := domain.Assemble(batches...)
	if dataset.Empty() {
		c.logger.Error("All trend sources failed", zap.Int("sources", len(sources)))
		return nil, apperrors.ErrNoData
	}

	c.logger.Info("Trend collection completed",
		zap.Int("sources", len(sources)),
		zap.Int("records", dataset.Len()))

	return dataset, nil
}

func (c *CollectorService) collectSource(ctx context.Context, src Source, now time.Time) []domain.Record {
	doc, err := c.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		c.logger.Warn("Source fetch failed, skipping",
			zap.String("url", src.URL),
			zap.Error(err))
		return nil
	}

	var records []domain.Record
	if src.Live {
		at := now.Add(-time.Duration(src.HoursAgo) * time.Hour)
		records, err = c.parser.ParseNowRanking(doc, src.Region, src.Period, at, c.maxRows)
	} else {
		records, err = c.parser.ParseTopRanking(doc, src.Region, src.Period, now, c.maxRows)
	}
	if err != nil {
		c.logger.Warn("Source parse yielded no records, skipping",
			zap.String("url", src.URL),
			zap.Error(err))
		return nil
	}

	return records
}

func (c *CollectorService) liveURL(region string, hoursAgo int) string {
	url := c.baseURL + "/"
	if slug := util.RegionSlug(region); slug != "world" {
		url += slug + "/"
	}
	if hoursAgo > 0 {
		url += fmt.Sprintf("%d/", hoursAgo)
	}
	return url
}

func (c *CollectorService) topURL(region, period string) string {
	url := c.baseURL + "/"
	if slug := util.RegionSlug(region); slug != "world" {
		url += slug + "/"
	}
	return url + "top/tweeted/" + util.Normalize(period) + "/"
}
