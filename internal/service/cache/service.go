package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kapu/trendwatch-go/internal/domain"
	apperrors "github.com/kapu/trendwatch-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	datasetKey   = "trends:dataset"
	tagLabelsKey = "trends:labels"
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Service wraps Redis for two jobs: warm-starting the dataset snapshot
// across restarts and memoizing tag sentiment labels so repeated render
// passes skip the classification provider.
type Service struct {
	client *redis.Client
	logger *zap.Logger
}

func NewService(cfg Config, logger *zap.Logger) (*Service, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("Redis connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("db", cfg.DB))

	return &Service{client: client, logger: logger}, nil
}

func (s *Service) Close() error {
	return s.client.Close()
}

func (s *Service) IsConnected(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}

func (s *Service) Get(ctx context.Context, key string, dest any) error {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // key absent is not an error
	}
	if err != nil {
		s.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			s.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return apperrors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return nil
}

func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := s.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		s.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

// GetDataset returns the last cached dataset snapshot, if any.
func (s *Service) GetDataset(ctx context.Context) (*domain.Dataset, bool) {
	var dataset *domain.Dataset
	if err := s.Get(ctx, datasetKey, &dataset); err != nil {
		return nil, false
	}
	if dataset == nil || dataset.Empty() {
		return nil, false
	}
	return dataset, true
}

func (s *Service) SetDataset(ctx context.Context, dataset *domain.Dataset, ttl time.Duration) {
	if err := s.Set(ctx, datasetKey, dataset, ttl); err != nil {
		s.logger.Error("Failed to cache dataset", zap.Error(err))
	}
}

// GetTagLabels returns the memoized sentiment labels for the given tags.
// Tags with no cached label are simply absent from the result.
func (s *Service) GetTagLabels(ctx context.Context, tags []string) map[string]string {
	labels := make(map[string]string, len(tags))
	if len(tags) == 0 {
		return labels
	}

	values, err := s.client.HMGet(ctx, tagLabelsKey, tags...).Result()
	if err != nil {
		s.logger.Debug("Label cache lookup failed", zap.Error(err))
		return labels
	}

	for i, value := range values {
		if label, ok := value.(string); ok && label != "" {
			labels[tags[i]] = label
		}
	}

	return labels
}

// SetTagLabels stores freshly classified labels and refreshes the hash TTL.
func (s *Service) SetTagLabels(ctx context.Context, labels map[string]string, ttl time.Duration) {
	if len(labels) == 0 {
		return
	}

	values := make([]any, 0, len(labels)*2)
	for tag, label := range labels {
		values = append(values, tag, label)
	}

	if err := s.client.HSet(ctx, tagLabelsKey, values...).Err(); err != nil {
		s.logger.Error("Failed to cache tag labels", zap.Int("labels", len(labels)), zap.Error(err))
		return
	}

	if ttl > 0 {
		if err := s.client.Expire(ctx, tagLabelsKey, ttl).Err(); err != nil {
			s.logger.Debug("Failed to refresh label cache TTL", zap.Error(err))
		}
	}
}
