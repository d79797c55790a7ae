package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/service"
	"github.com/kapu/trendwatch-go/internal/service/mailer"
	"github.com/kapu/trendwatch-go/internal/service/subscription"
	apperrors "github.com/kapu/trendwatch-go/pkg/errors"
	"go.uber.org/zap"
)

func buildDigestBody(snap *service.Snapshot, regions []string, n int) string {
	return mailer.BuildDigest(snap.Dataset, regions, n)
}

// SubscriberStore is the subscription repository surface the handlers use.
type SubscriberStore interface {
	Add(ctx context.Context, name, email, phone string) error
	Remove(ctx context.Context, name, email string) (bool, error)
	List(ctx context.Context) ([]domain.Subscriber, error)
	Emails(ctx context.Context) ([]string, error)
}

// DigestSender is the mailer surface used for digest delivery.
type DigestSender interface {
	Enabled() bool
	Send(subject, htmlBody string, recipients []string) int
}

type SubscriptionHandler struct {
	store     SubscriberStore
	mail      DigestSender
	snapshots SnapshotProvider
	regions   []string
	digestN   int
	logger    *zap.Logger
}

func NewSubscriptionHandler(store SubscriberStore, mail DigestSender, snapshots SnapshotProvider, regions []string, digestN int, logger *zap.Logger) *SubscriptionHandler {
	if digestN <= 0 {
		digestN = 10
	}
	return &SubscriptionHandler{
		store:     store,
		mail:      mail,
		snapshots: snapshots,
		regions:   regions,
		digestN:   digestN,
		logger:    logger,
	}
}

type subscribeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type unsubscribeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Subscribe validates and stores a new subscriber.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Name == "" || req.Email == "" || req.Phone == "" {
		respondError(w, http.StatusBadRequest, "name, email and phone are required")
		return
	}
	if !domain.ValidEmail(req.Email) {
		verr := apperrors.NewValidationError("invalid email address", "email", req.Email)
		respondError(w, verr.StatusCode, verr.Message)
		return
	}

	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "subscriptions unavailable")
		return
	}

	if err := h.store.Add(r.Context(), req.Name, req.Email, req.Phone); err != nil {
		if errors.Is(err, subscription.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		h.logger.Error("Failed to add subscriber", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

// Unsubscribe removes a subscriber by name and email.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "subscriptions unavailable")
		return
	}

	removed, err := h.store.Remove(r.Context(), req.Name, req.Email)
	if err != nil {
		h.logger.Error("Failed to remove subscriber", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "no matching subscription found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// ListSubscribers returns the full subscriber table.
func (h *SubscriptionHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "subscriptions unavailable")
		return
	}

	subscribers, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list subscribers", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"subscribers": subscribers,
		"total":       len(subscribers),
	})
}

// SendDigest builds the top-hashtags digest from the current snapshot and
// mails it to every subscriber.
func (h *SubscriptionHandler) SendDigest(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.mail == nil || !h.mail.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "digest mailing not configured")
		return
	}

	snap := h.snapshots.Snapshot()
	if snap == nil || snap.Dataset.Empty() {
		respondError(w, http.StatusServiceUnavailable, "no trend data available")
		return
	}

	recipients, err := h.store.Emails(r.Context())
	if err != nil {
		h.logger.Error("Failed to load digest recipients", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if len(recipients) == 0 {
		respondError(w, http.StatusNotFound, "no subscribers")
		return
	}

	body := buildDigestBody(snap, h.regions, h.digestN)
	sent := h.mail.Send("Top Trending Hashtags", body, recipients)

	respondJSON(w, http.StatusOK, map[string]any{
		"sent":       sent,
		"recipients": len(recipients),
	})
}
