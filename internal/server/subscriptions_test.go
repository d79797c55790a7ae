package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kapu/trendwatch-go/internal/domain"
	"github.com/kapu/trendwatch-go/internal/service/subscription"
	"go.uber.org/zap"
)

type fakeStore struct {
	subscribers []domain.Subscriber
	addErr      error
	removed     bool
}

func (f *fakeStore) Add(_ context.Context, name, email, phone string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.subscribers = append(f.subscribers, domain.Subscriber{Name: name, Email: email, Phone: phone})
	return nil
}

func (f *fakeStore) Remove(_ context.Context, name, email string) (bool, error) {
	return f.removed, nil
}

func (f *fakeStore) List(_ context.Context) ([]domain.Subscriber, error) {
	return f.subscribers, nil
}

func (f *fakeStore) Emails(_ context.Context) ([]string, error) {
	emails := make([]string, len(f.subscribers))
	for i, s := range f.subscribers {
		emails[i] = s.Email
	}
	return emails, nil
}

type fakeMail struct {
	enabled    bool
	subject    string
	body       string
	recipients []string
}

func (f *fakeMail) Enabled() bool { return f.enabled }

func (f *fakeMail) Send(subject, htmlBody string, recipients []string) int {
	f.subject = subject
	f.body = htmlBody
	f.recipients = recipients
	return len(recipients)
}

func newSubHandler(store SubscriberStore, mail DigestSender, snapshots SnapshotProvider) *SubscriptionHandler {
	return NewSubscriptionHandler(store, mail, snapshots, []string{"World", "India"}, 10, zap.NewNop())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler(rec, req)
	return rec
}

func TestSubscribe(t *testing.T) {
	store := &fakeStore{}
	handler := newSubHandler(store, &fakeMail{}, &fakeSnapshots{})

	rec := postJSON(t, handler.Subscribe, "/api/v1/subscriptions",
		`{"name":"Asha","email":"asha@example.com","phone":"+911234567890"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.subscribers) != 1 || store.subscribers[0].Email != "asha@example.com" {
		t.Errorf("unexpected stored subscribers: %+v", store.subscribers)
	}
}

func TestSubscribeValidation(t *testing.T) {
	handler := newSubHandler(&fakeStore{}, &fakeMail{}, &fakeSnapshots{})

	cases := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{not json`},
		{"missing name", `{"email":"a@b.com","phone":"123"}`},
		{"missing phone", `{"name":"A","email":"a@b.com"}`},
		{"bad email", `{"name":"A","email":"not-an-email","phone":"123"}`},
	}

	for _, tc := range cases {
		rec := postJSON(t, handler.Subscribe, "/api/v1/subscriptions", tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestSubscribeDuplicateEmail(t *testing.T) {
	store := &fakeStore{addErr: subscription.ErrDuplicateEmail}
	handler := newSubHandler(store, &fakeMail{}, &fakeSnapshots{})

	rec := postJSON(t, handler.Subscribe, "/api/v1/subscriptions",
		`{"name":"Asha","email":"asha@example.com","phone":"123"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSubscribeWithoutStore(t *testing.T) {
	handler := newSubHandler(nil, &fakeMail{}, &fakeSnapshots{})

	rec := postJSON(t, handler.Subscribe, "/api/v1/subscriptions",
		`{"name":"Asha","email":"asha@example.com","phone":"123"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a store, got %d", rec.Code)
	}
}

func TestUnsubscribeNotFound(t *testing.T) {
	handler := newSubHandler(&fakeStore{removed: false}, &fakeMail{}, &fakeSnapshots{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/subscriptions",
		strings.NewReader(`{"name":"A","email":"a@b.com"}`))
	handler.Unsubscribe(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUnsubscribe(t *testing.T) {
	handler := newSubHandler(&fakeStore{removed: true}, &fakeMail{}, &fakeSnapshots{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/subscriptions",
		strings.NewReader(`{"name":"A","email":"a@b.com"}`))
	handler.Unsubscribe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListSubscribers(t *testing.T) {
	store := &fakeStore{subscribers: []domain.Subscriber{
		{Name: "A", Email: "a@b.com", Phone: "1"},
		{Name: "B", Email: "b@b.com", Phone: "2"},
	}}
	handler := newSubHandler(store, &fakeMail{}, &fakeSnapshots{})

	rec := httptest.NewRecorder()
	handler.ListSubscribers(rec, httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil))

	var resp struct {
		Subscribers []domain.Subscriber `json:"subscribers"`
		Total       int                 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Subscribers) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSendDigest(t *testing.T) {
	store := &fakeStore{subscribers: []domain.Subscriber{
		{Name: "A", Email: "a@b.com", Phone: "1"},
	}}
	mail := &fakeMail{enabled: true}
	handler := newSubHandler(store, mail, &fakeSnapshots{snap: testSnapshot()})

	rec := httptest.NewRecorder()
	handler.SendDigest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/digest", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(mail.recipients) != 1 || mail.recipients[0] != "a@b.com" {
		t.Errorf("unexpected recipients: %v", mail.recipients)
	}
	if !strings.Contains(mail.body, "#golang") {
		t.Errorf("expected digest body to include top tags, got: %s", mail.body)
	}
}

func TestSendDigestWithoutMailer(t *testing.T) {
	handler := newSubHandler(&fakeStore{}, &fakeMail{enabled: false}, &fakeSnapshots{snap: testSnapshot()})

	rec := httptest.NewRecorder()
	handler.SendDigest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/digest", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when mailing is unconfigured, got %d", rec.Code)
	}
}

func TestSendDigestWithoutSnapshot(t *testing.T) {
	handler := newSubHandler(&fakeStore{}, &fakeMail{enabled: true}, &fakeSnapshots{})

	rec := httptest.NewRecorder()
	handler.SendDigest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/digest", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without data, got %d", rec.Code)
	}
}

func TestSendDigestWithoutSubscribers(t *testing.T) {
	handler := newSubHandler(&fakeStore{}, &fakeMail{enabled: true}, &fakeSnapshots{snap: testSnapshot()})

	rec := httptest.NewRecorder()
	handler.SendDigest(rec, httptest.NewRequest(http.MethodPost, "/api/v1/digest", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with no subscribers, got %d", rec.Code)
	}
}
