package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jobpulse/jobpulse/internal/metrics"
	"github.com/jobpulse/jobpulse/internal/model"
)

type fakeBot struct {
	updates []tgbotapi.Update
}

func (b *fakeBot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.updates = append(b.updates, update)
}

type fakePinger struct{ err error }

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

type statStore struct {
	counts model.StoreCounts
}

func (s *statStore) Counts(context.Context) (model.StoreCounts, error) {
	return s.counts, nil
}
func (s *statStore) RegisterUser(context.Context, int64, string) (bool, error) {
	return false, nil
}
func (s *statStore) SetCategory(context.Context, int64, model.Category) (bool, error) {
	return false, nil
}
func (s *statStore) AddListing(context.Context, model.Listing) (bool, error) {
	return false, nil
}
func (s *statStore) LatestListings(context.Context, model.Category, int) ([]model.Listing, error) {
	return nil, nil
}
func (s *statStore) RecentListings(context.Context, model.Category, time.Time) ([]model.Listing, error) {
	return nil, nil
}
func (s *statStore) ListUsers(context.Context) ([]model.User, error) { return nil, nil }
func (s *statStore) PurgeOlderThan(context.Context, int) (int64, error) {
	return 0, nil
}

func newTestRouter(bot *fakeBot, pinger *fakePinger) http.Handler {
	return NewRouter(Deps{
		WebhookToken: "secret-token",
		Bot:          bot,
		Store:        &statStore{counts: model.StoreCounts{Users: 2, Listings: 5}},
		Pinger:       pinger,
		Metrics:      metrics.NewInMemory(),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestWebhookAcceptsValidToken(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot, &fakePinger{})

	body := `{"update_id": 1, "message": {"message_id": 1, "chat": {"id": 5}, "text": "/start"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/secret-token", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "ok" {
		t.Errorf("body = %q, want ok", got)
	}
	if len(bot.updates) != 1 || bot.updates[0].UpdateID != 1 {
		t.Errorf("bot received %v", bot.updates)
	}
}

func TestWebhookRejectsWrongToken(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot, &fakePinger{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/wrong", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(bot.updates) != 0 {
		t.Error("bot should not see updates from rejected requests")
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	bot := &fakeBot{}
	router := newTestRouter(bot, &fakePinger{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/secret-token", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeBot{}, &fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyzReflectsStoreHealth(t *testing.T) {
	pinger := &fakePinger{}
	router := newTestRouter(&fakeBot{}, pinger)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthy store: status = %d, want 200", rec.Code)
	}

	pinger.err = errors.New("database locked")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy store: status = %d, want 503", rec.Code)
	}
}

func TestStats(t *testing.T) {
	router := newTestRouter(&fakeBot{}, &fakePinger{})

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"users":2`) || !strings.Contains(body, `"listings":5`) {
		t.Errorf("unexpected stats body: %s", body)
	}
}
