package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jobpulse/jobpulse/internal/metrics"
	"github.com/jobpulse/jobpulse/internal/model"
)

// UpdateHandler consumes decoded Telegram updates. *telegram.Bot implements
// it.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Pinger reports backing-store reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router exposes over HTTP.
type Deps struct {
	WebhookToken string
	Bot          UpdateHandler
	Store        model.ListingStore
	Pinger       Pinger
	Metrics      metrics.Snapshotter
	Logger       *slog.Logger
}

// NewRouter builds the chi router for all inbound endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/webhook/{token}", handleWebhook(d))
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady(d))
	r.Get("/stats", handleStats(d))

	return r
}

// handleWebhook verifies the path secret and feeds the update to the bot.
// Telegram only needs a 200 to consider the update delivered.
func handleWebhook(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(d.WebhookToken)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			d.Logger.Error("decoding webhook update", "error", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		d.Bot.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Pinger.Ping(r.Context()); err != nil {
			d.Logger.Error("readiness probe", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func handleStats(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := d.Store.Counts(r.Context())
		if err != nil {
			d.Logger.Error("loading stats", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"users":    counts.Users,
			"listings": counts.Listings,
			"metrics":  d.Metrics.Snapshot(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
