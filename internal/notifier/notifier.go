// Package notifier delivers listings to subscribed users in rate-limited
// batches.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jobpulse/jobpulse/internal/metrics"
	"github.com/jobpulse/jobpulse/internal/model"
)

// Result summarizes one delivery run.
type Result struct {
	Sent    int
	Failed  int
	Skipped int
}

// Notifier fans listings out to users through a Messenger. Messages go out
// in fixed-size batches with a pause between batches to stay under the
// Telegram flood limits.
type Notifier struct {
	messenger  model.Messenger
	batchSize  int
	batchSleep time.Duration
	recorder   metrics.Recorder
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a notifier. batchSize messages are sent concurrently, then the
// notifier pauses batchSleep before the next batch.
func New(
	messenger model.Messenger,
	batchSize int,
	batchSleep time.Duration,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Notifier {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Notifier{
		messenger:  messenger,
		batchSize:  batchSize,
		batchSleep: batchSleep,
		recorder:   recorder,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// FormatListing renders the single-listing message body.
func FormatListing(l model.Listing) string {
	return fmt.Sprintf("📌 %s\n🏢 %s\n🔗 %s", l.Title, l.Company, l.URL)
}

type delivery struct {
	chatID int64
	text   string
}

type outcome struct {
	chatID int64
	err    error
}

// Send delivers every listing to every user. A recipient that turns out to
// be permanently unreachable is skipped for the remainder of the run; other
// failures only affect the single message. The returned error is non-nil
// only when the run could not proceed at all.
func (n *Notifier) Send(ctx context.Context, users []model.User, listings []model.Listing) (Result, error) {
	if n.messenger == nil {
		return Result{}, errors.New("notifier: no messenger configured")
	}

	var queue []delivery
	for _, u := range users {
		for _, l := range listings {
			queue = append(queue, delivery{chatID: u.TelegramID, text: FormatListing(l)})
		}
	}
	if len(queue) == 0 {
		return Result{}, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("notifier: %w", err)
	}

	var res Result
	gone := make(map[int64]bool)

	for start := 0; start < len(queue); start += n.batchSize {
		end := start + n.batchSize
		if end > len(queue) {
			end = len(queue)
		}

		if start > 0 {
			if err := n.sleep(ctx, n.batchSleep); err != nil {
				// Cancelled mid-run: report what was delivered so far.
				res.Skipped += len(queue) - start
				return res, nil
			}
		}

		n.sendBatch(ctx, queue[start:end], gone, &res)
	}

	n.logger.Info("delivery run complete",
		"sent", res.Sent,
		"failed", res.Failed,
		"skipped", res.Skipped,
	)
	return res, nil
}

// sendBatch dispatches one batch concurrently and folds the outcomes into
// res. Recipients found gone during the batch are added to the gone set.
func (n *Notifier) sendBatch(ctx context.Context, batch []delivery, gone map[int64]bool, res *Result) {
	outcomes := make(chan outcome, len(batch))
	var wg sync.WaitGroup

	for _, d := range batch {
		if gone[d.chatID] {
			res.Skipped++
			n.recorder.MessageSkipped()
			continue
		}
		wg.Add(1)
		go func(d delivery) {
			defer wg.Done()
			outcomes <- outcome{chatID: d.chatID, err: n.messenger.SendMessage(ctx, d.chatID, d.text)}
		}(d)
	}

	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		switch {
		case o.err == nil:
			res.Sent++
			n.recorder.MessageSent()
		case errors.Is(o.err, model.ErrRecipientGone):
			// The failed send counts; the recipient's remaining messages
			// are skipped instead of attempted.
			gone[o.chatID] = true
			res.Failed++
			n.recorder.MessageFailed()
			n.logger.Info("recipient unreachable, skipping for rest of run", "chat_id", o.chatID)
		default:
			res.Failed++
			n.recorder.MessageFailed()
			n.logger.Error("sending message", "chat_id", o.chatID, "error", o.err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
