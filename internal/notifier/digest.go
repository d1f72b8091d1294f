package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/jobpulse/jobpulse/internal/model"
)

// digestWindow is how far back the daily digest looks for listings.
const digestWindow = 24 * time.Hour

// Digest delivers each user the listings of their category from the
// trailing day.
type Digest struct {
	store    model.ListingStore
	notifier *Notifier
	logger   *slog.Logger
}

// NewDigest creates the daily digest job.
func NewDigest(store model.ListingStore, notifier *Notifier, logger *slog.Logger) *Digest {
	return &Digest{store: store, notifier: notifier, logger: logger}
}

// Run sends the digest to every subscribed user. A user with nothing new in
// their category gets no message. Per-user failures are logged and do not
// stop the run.
func (d *Digest) Run(ctx context.Context) (Result, error) {
	users, err := d.store.ListUsers(ctx)
	if err != nil {
		return Result{}, err
	}

	since := time.Now().Add(-digestWindow)
	var total Result
	for _, u := range users {
		listings, err := d.store.RecentListings(ctx, u.Category, since)
		if err != nil {
			d.logger.Error("loading digest listings", "chat_id", u.TelegramID, "error", err)
			continue
		}
		if len(listings) == 0 {
			continue
		}

		res, err := d.notifier.Send(ctx, []model.User{u}, listings)
		if err != nil {
			d.logger.Error("sending digest", "chat_id", u.TelegramID, "error", err)
			continue
		}
		total.Sent += res.Sent
		total.Failed += res.Failed
		total.Skipped += res.Skipped
	}

	d.logger.Info("digest complete",
		"users", len(users),
		"sent", total.Sent,
		"failed", total.Failed,
		"skipped", total.Skipped,
	)
	return total, nil
}
