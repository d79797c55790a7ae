package sentiment

import (
	"context"
	"time"

	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/util"
	apperrors "github.com/kapu/trendwatch-go/pkg/errors"
	"go.uber.org/zap"
)

// Mode selects how star ratings map onto sentiment labels.
type Mode string

const (
	// ModeThreeClass collapses stars: 1-2 Negative, 3 Neutral, 4-5 Positive.
	ModeThreeClass Mode = "3class"
	// ModeFiveClass keeps the model's native five-label domain.
	ModeFiveClass Mode = "5class"
)

const DefaultBatchSize = 32

// LabelCache memoizes tag labels across render passes. Implemented by the
// Redis cache service; nil disables memoization.
type LabelCache interface {
	GetTagLabels(ctx context.Context, tags []string) map[string]string
	SetTagLabels(ctx context.Context, labels map[string]string, ttl time.Duration)
}

// Labeler classifies the distinct tag set of a dataset. Tags go to the
// provider in fixed-size batches; a failing batch gets the Neutral default
// for its tags only and never aborts the remaining batches.
type Labeler struct {
	primary   Provider
	fallback  Provider
	cache     LabelCache
	mode      Mode
	batchSize int
	cacheTTL  time.Duration
	logger    *zap.Logger
}

type LabelerConfig struct {
	Mode      Mode
	BatchSize int
	CacheTTL  time.Duration
}

func NewLabeler(primary, fallback Provider, cache LabelCache, cfg LabelerConfig, logger *zap.Logger) *Labeler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	mode := cfg.Mode
	if mode != ModeThreeClass {
		mode = ModeFiveClass
	}

	return &Labeler{
		primary:   primary,
		fallback:  fallback,
		cache:     cache,
		mode:      mode,
		batchSize: batchSize,
		cacheTTL:  cfg.CacheTTL,
		logger:    logger,
	}
}

// ClassifyTags returns one label per distinct input tag. Callers broadcast
// the mapping onto every record sharing the tag.
func (l *Labeler) ClassifyTags(ctx context.Context, tags []string) map[string]string {
	unique := util.UniqueStrings(tags)
	labels := make(map[string]string, len(unique))
	if len(unique) == 0 {
		return labels
	}

	pending := unique
	if l.cache != nil {
		cached := l.cache.GetTagLabels(ctx, unique)
		pending = make([]string, 0, len(unique))
		for _, tag := range unique {
			if label, ok := cached[tag]; ok {
				labels[tag] = label
			} else {
				pending = append(pending, tag)
			}
		}
		if len(cached) > 0 {
			l.logger.Debug("Label cache hits", zap.Int("hits", len(cached)), zap.Int("misses", len(pending)))
		}
	}

	fresh := make(map[string]string, len(pending))
	for start := 0; start < len(pending); start += l.batchSize {
		end := util.Min(start+l.batchSize, len(pending))
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, tag := range batch {
			texts[i] = util.CleanTag(tag)
		}

		results, err := l.classifyBatch(ctx, texts)
		if err != nil {
			l.logger.Warn("Classification batch failed, defaulting to Neutral",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			for _, tag := range batch {
				fresh[tag] = domain.SentimentNeutral
			}
			continue
		}

		for i, res := range results {
			fresh[batch[i]] = l.mapLabel(res.Label)
		}
	}

	for tag, label := range fresh {
		labels[tag] = label
	}

	if l.cache != nil && len(fresh) > 0 {
		l.cache.SetTagLabels(ctx, fresh, l.cacheTTL)
	}

	l.logger.Info("Tags classified",
		zap.Int("tags", len(unique)),
		zap.Int("fresh", len(fresh)),
		zap.String("mode", string(l.mode)))

	return labels
}

func (l *Labeler) classifyBatch(ctx context.Context, texts []string) ([]Result, error) {
	results, err := l.primary.Classify(ctx, texts)
	if err == nil {
		return results, nil
	}

	if l.fallback == nil {
		return nil, apperrors.NewClassifyError("classification failed", l.primary.Name(), len(texts), err)
	}

	l.logger.Warn("Primary provider failed, trying fallback",
		zap.String("primary", l.primary.Name()),
		zap.String("fallback", l.fallback.Name()),
		zap.Error(err))

	results, err = l.fallback.Classify(ctx, texts)
	if err != nil {
		return nil, apperrors.NewClassifyError("all providers failed", l.fallback.Name(), len(texts), err)
	}
	return results, nil
}

// mapLabel converts a star-rated label to the configured output domain.
// Labels without a recognizable star digit default to Neutral.
func (l *Labeler) mapLabel(starLabel string) string {
	stars := 0
	for _, r := range starLabel {
		if r >= '1' && r <= '5' {
			stars = int(r - '0')
			break
		}
	}
	if stars == 0 {
		return domain.SentimentNeutral
	}

	if l.mode == ModeThreeClass {
		switch {
		case stars <= 2:
			return domain.SentimentNegative
		case stars == 3:
			return domain.SentimentNeutral
		default:
			return domain.SentimentPositive
		}
	}

	switch stars {
	case 1:
		return domain.SentimentVeryNegative
	case 2:
		return domain.SentimentNegative
	case 3:
		return domain.SentimentNeutral
	case 4:
		return domain.SentimentPositive
	default:
		return domain.SentimentVeryPositive
	}
}
