package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/service"
	"go.uber.org/zap"
)

const exportFilename = "hashtags_sentiment.csv"

// SnapshotProvider is the read surface of the refresher.
type SnapshotProvider interface {
	Snapshot() *service.Snapshot
	Refresh(ctx context.Context) (*service.Snapshot, error)
}

// TrendHandler serves the assembled dataset. Every read endpoint guards
// against the empty-snapshot condition: when all sources have failed there
// is nothing meaningful to aggregate, so it short-circuits with 503.
type TrendHandler struct {
	snapshots SnapshotProvider
	logger    *zap.Logger
}

func NewTrendHandler(snapshots SnapshotProvider, logger *zap.Logger) *TrendHandler {
	return &TrendHandler{
		snapshots: snapshots,
		logger:    logger,
	}
}

func (h *TrendHandler) snapshot(w http.ResponseWriter) *service.Snapshot {
	snap := h.snapshots.Snapshot()
	if snap == nil || snap.Dataset.Empty() {
		respondError(w, http.StatusServiceUnavailable, "no trend data available")
		return nil
	}
	return snap
}

// GetTrends returns the filtered dataset as JSON.
func (h *TrendHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}

	filtered := snap.Dataset.Filter(queryFromRequest(r))

	respondJSON(w, http.StatusOK, map[string]any{
		"records":      filtered.Records,
		"total":        filtered.Len(),
		"refreshed_at": snap.RefreshedAt,
	})
}

// ExportCSV streams the filtered dataset as a CSV attachment.
func (h *TrendHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}

	filtered := snap.Dataset.Filter(queryFromRequest(r))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)

	if err := filtered.WriteCSV(w); err != nil {
		h.logger.Error("CSV export failed", zap.Error(err))
	}
}

// GetTop returns the top-N tags by summed count, optionally per region.
func (h *TrendHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}

	region := ""
	if raw := r.URL.Query().Get("region"); raw != "" {
		region = domain.NormalizeRegion(raw)
	}

	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"region": region,
		"top":    snap.Dataset.TopByCount(region, n),
	})
}

// GetCloud returns tag appearance frequencies for the word-cloud view.
func (h *TrendHandler) GetCloud(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}

	limit := 70
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tags": snap.Dataset.TagFrequencies(limit),
	})
}

// ForceRefresh runs a collection pass immediately.
func (h *TrendHandler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Refresh(r.Context())
	if err != nil {
		h.logger.Warn("Forced refresh failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "refresh failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"records":      snap.Dataset.Len(),
		"refreshed_at": snap.RefreshedAt,
	})
}

func queryFromRequest(r *http.Request) domain.Query {
	params := r.URL.Query()

	q := domain.Query{
		Search:     params.Get("q"),
		Sentiments: splitParam(params.Get("sentiment")),
		Regions:    splitParam(params.Get("region")),
		Periods:    splitParam(params.Get("period")),
	}

	if raw := params.Get("min_count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			q.MinCount = n
		}
	}
	if raw := params.Get("max_count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			q.MaxCount = n
		}
	}

	return q
}

func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
