package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/kapu/trendwatch-go/pkg/errors"
	"go.uber.org/zap"
)

const (
	fetchTimeout = 15 * time.Second
	userAgent    = "Mozilla/5.0"
)

// FetcherService issues bounded GETs against trend listing pages. Any
// failure is reported as a FetchError; callers must treat that as "zero
// records for this source", never as a fatal condition.
type FetcherService struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFetcherService(logger *zap.Logger) *FetcherService {
	return &FetcherService{
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
		logger: logger,
	}
}

func (f *FetcherService) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, apperrors.NewFetchError("invalid request", url, err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchError("HTTP request failed", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewFetchError(
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode), url, nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperrors.NewFetchError("HTML parse failed", url, err)
	}

	f.logger.Debug("Fetched trend page", zap.String("url", url))
	return doc, nil
}
