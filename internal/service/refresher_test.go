package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/service/sentiment"
	"go.uber.org/zap"
)

type positiveProvider struct{}

func (positiveProvider) Name() string { return "fake" }

func (positiveProvider) Classify(_ context.Context, texts []string) ([]sentiment.Result, error) {
	results := make([]sentiment.Result, len(texts))
	for i := range texts {
		results[i] = sentiment.Result{Label: "4 stars", Confidence: 0.9}
	}
	return results, nil
}

func newTestRefresher(t *testing.T, handler http.Handler) (*RefresherService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	collector := newCollector(srv.URL, []string{"World"}, nil)
	labeler := sentiment.NewLabeler(positiveProvider{}, nil, nil, sentiment.LabelerConfig{
		Mode:      sentiment.ModeFiveClass,
		BatchSize: 32,
	}, logger)

	return NewRefresherService(collector, labeler, nil, 0, logger), srv
}

func TestRefreshProducesLabeledSnapshot(t *testing.T) {
	live := `<table class="ranking"><tr><th class="pos">1</th><td class="main"><a>#live</a><div class="desc">10K Tweets</div></td></tr></table>`
	refresher, _ := newTestRefresher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Write([]byte(live))
			return
		}
		http.NotFound(w, r)
	}))

	if refresher.Snapshot() != nil {
		t.Fatal("expected nil snapshot before first refresh")
	}

	snap, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snap.Dataset.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", snap.Dataset.Len())
	}
	if snap.Dataset.Records[0].Sentiment != domain.SentimentPositive {
		t.Errorf("expected labeled record, got %q", snap.Dataset.Records[0].Sentiment)
	}

	if refresher.Snapshot() != snap {
		t.Error("expected Snapshot() to return the refreshed snapshot")
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	live := `<table class="ranking"><tr><td class="main"><a>#live</a></td></tr></table>`
	var failing atomic.Bool

	refresher, _ := newTestRefresher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path == "/" {
			w.Write([]byte(live))
			return
		}
		http.NotFound(w, r)
	}))

	first, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected first refresh to succeed, got %v", err)
	}

	failing.Store(true)
	if _, err := refresher.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh to fail with every source down")
	}

	if refresher.Snapshot() != first {
		t.Error("failed refresh must keep the previous snapshot in place")
	}
}

func TestRefreshNotifiesListeners(t *testing.T) {
	live := `<table class="ranking"><tr><td class="main"><a>#live</a></td></tr></table>`
	refresher, _ := newTestRefresher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.Write([]byte(live))
			return
		}
		http.NotFound(w, r)
	}))

	var notified *Snapshot
	refresher.OnRefresh(func(snap *Snapshot) {
		notified = snap
	})

	snap, err := refresher.Refresh(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if notified != snap {
		t.Error("expected listener to receive the new snapshot")
	}
}
