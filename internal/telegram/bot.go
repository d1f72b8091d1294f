package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jobpulse/jobpulse/internal/metrics"
	"github.com/jobpulse/jobpulse/internal/model"
	"github.com/jobpulse/jobpulse/internal/notifier"
)

// callbackPrefix namespaces category-picker callback data.
const callbackPrefix = "cat:"

// listingsPerCommand caps how many listings a browse command returns.
const listingsPerCommand = 10

// Sender is the outbound surface the bot needs. *Client implements it.
type Sender interface {
	model.Messenger
	SendCategoryKeyboard(ctx context.Context, chatID int64, text string) error
	EditToText(ctx context.Context, chatID int64, messageID int, text string) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Bot routes decoded webhook updates to command handlers.
type Bot struct {
	store    model.ListingStore
	sender   Sender
	adminID  int64
	purge    func(ctx context.Context) (int64, error)
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewBot creates the command router. purge is invoked by the admin /cleanup
// command.
func NewBot(
	store model.ListingStore,
	sender Sender,
	adminID int64,
	purge func(ctx context.Context) (int64, error),
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		store:    store,
		sender:   sender,
		adminID:  adminID,
		purge:    purge,
		recorder: recorder,
		logger:   logger,
	}
}

// HandleUpdate processes one webhook update. Handler errors are logged, not
// returned: Telegram retries on non-200 and a poison update would loop
// forever.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.logger.Error("handling callback", "error", err)
		}
	case update.Message != nil && update.Message.IsCommand():
		if err := b.handleCommand(ctx, update.Message); err != nil {
			b.logger.Error("handling command",
				"command", update.Message.Command(),
				"error", err,
			)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	cmd := msg.Command()
	b.recorder.CommandHandled(cmd)

	switch cmd {
	case "start":
		return b.handleStart(ctx, msg)
	case "jobs":
		return b.sendLatest(ctx, msg.Chat.ID, model.CategoryGeneral)
	case "remote":
		return b.sendLatest(ctx, msg.Chat.ID, model.CategoryRemote)
	case "internships":
		return b.sendLatest(ctx, msg.Chat.ID, model.CategoryInternship)
	case "scholarships":
		return b.sendLatest(ctx, msg.Chat.ID, model.CategoryScholarship)
	case "stats":
		if !b.isAdmin(msg.From) {
			return nil
		}
		return b.handleStats(ctx, msg.Chat.ID)
	case "broadcast":
		if !b.isAdmin(msg.From) {
			return nil
		}
		return b.handleBroadcast(ctx, msg.Chat.ID, msg.CommandArguments())
	case "cleanup":
		if !b.isAdmin(msg.From) {
			return nil
		}
		return b.handleCleanup(ctx, msg.Chat.ID)
	default:
		return nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	created, err := b.store.RegisterUser(ctx, msg.From.ID, displayName(msg.From))
	if err != nil {
		return fmt.Errorf("registering user: %w", err)
	}
	if created {
		b.logger.Info("new subscriber", "chat_id", msg.From.ID)
	}

	return b.sender.SendCategoryKeyboard(ctx, msg.Chat.ID,
		"👋 Welcome! Pick the listings you want to receive:")
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || !strings.HasPrefix(cb.Data, callbackPrefix) {
		return nil
	}

	cat, err := model.ParseCategory(strings.TrimPrefix(cb.Data, callbackPrefix))
	if err != nil {
		return fmt.Errorf("callback data %q: %w", cb.Data, err)
	}

	// The user may tap a stale keyboard from before a database reset.
	if _, err := b.store.RegisterUser(ctx, cb.From.ID, displayName(cb.From)); err != nil {
		return fmt.Errorf("registering user: %w", err)
	}
	if _, err := b.store.SetCategory(ctx, cb.From.ID, cat); err != nil {
		return fmt.Errorf("setting category: %w", err)
	}

	if err := b.sender.AnswerCallback(ctx, cb.ID); err != nil {
		b.logger.Error("answering callback", "error", err)
	}

	if cb.Message != nil {
		confirm := fmt.Sprintf("✅ Subscribed to %s listings. You'll get a daily digest.", cat)
		return b.sender.EditToText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, confirm)
	}
	return nil
}

func (b *Bot) sendLatest(ctx context.Context, chatID int64, cat model.Category) error {
	listings, err := b.store.LatestListings(ctx, cat, listingsPerCommand)
	if err != nil {
		return fmt.Errorf("loading latest %s listings: %w", cat, err)
	}
	if len(listings) == 0 {
		return b.sender.SendMessage(ctx, chatID,
			fmt.Sprintf("No %s listings yet. Check back after the next scrape.", cat))
	}

	parts := make([]string, 0, len(listings))
	for _, l := range listings {
		parts = append(parts, notifier.FormatListing(l))
	}
	return b.sender.SendMessage(ctx, chatID, strings.Join(parts, "\n\n"))
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) error {
	counts, err := b.store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("loading counts: %w", err)
	}
	text := fmt.Sprintf("📊 Stats\nUsers: %d\nListings: %d", counts.Users, counts.Listings)
	return b.sender.SendMessage(ctx, chatID, text)
}

func (b *Bot) handleBroadcast(ctx context.Context, chatID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return b.sender.SendMessage(ctx, chatID, "Usage: /broadcast <message>")
	}

	users, err := b.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	sent, failed := 0, 0
	for _, u := range users {
		if err := b.sender.SendMessage(ctx, u.TelegramID, text); err != nil {
			failed++
			if !errors.Is(err, model.ErrRecipientGone) {
				b.logger.Error("broadcast send", "chat_id", u.TelegramID, "error", err)
			}
			continue
		}
		sent++
	}

	report := fmt.Sprintf("Broadcast done: %d sent, %d failed.", sent, failed)
	return b.sender.SendMessage(ctx, chatID, report)
}

func (b *Bot) handleCleanup(ctx context.Context, chatID int64) error {
	removed, err := b.purge(ctx)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	return b.sender.SendMessage(ctx, chatID,
		fmt.Sprintf("🧹 Removed %d old listings.", removed))
}

func (b *Bot) isAdmin(from *tgbotapi.User) bool {
	return from != nil && b.adminID != 0 && from.ID == b.adminID
}

// displayName builds a human-readable name from the Telegram profile.
func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = fmt.Sprintf("user-%d", u.ID)
	}
	return name
}
