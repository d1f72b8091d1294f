// Package telegram holds the outbound Telegram client and the inbound
// command bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jobpulse/jobpulse/internal/model"
)

// api is the subset of *tgbotapi.BotAPI the client uses. Kept narrow so tests
// can substitute a fake.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client implements model.Messenger over the Telegram Bot API.
type Client struct {
	api    api
	logger *slog.Logger
}

// NewClient authenticates against the Bot API with the given token.
func NewClient(token string, logger *slog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	logger.Info("telegram bot authorized", "username", bot.Self.UserName)
	return &Client{api: bot, logger: logger}, nil
}

// SendMessage delivers one plain-text message. A 403 from Telegram means the
// user blocked the bot or deleted their account; that is surfaced as
// model.ErrRecipientGone so callers stop messaging them.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := c.api.Send(msg); err != nil {
		return c.classify(err)
	}
	return nil
}

// SendCategoryKeyboard sends text with an inline keyboard of subscription
// categories.
func (c *Client) SendCategoryKeyboard(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = categoryKeyboard()
	if _, err := c.api.Send(msg); err != nil {
		return c.classify(err)
	}
	return nil
}

// EditToText replaces a previously sent message (removing any keyboard).
func (c *Client) EditToText(ctx context.Context, chatID int64, messageID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := c.api.Send(edit); err != nil {
		return c.classify(err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query so the client stops showing
// a spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return c.classify(err)
	}
	return nil
}

// RegisterWebhook points Telegram at our inbound webhook URL.
func (c *Client) RegisterWebhook(baseURL, webhookToken string) error {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + "/webhook/" + webhookToken)
	if err != nil {
		return fmt.Errorf("building webhook: %w", err)
	}
	if _, err := c.api.Request(wh); err != nil {
		return fmt.Errorf("registering webhook: %w", err)
	}
	return nil
}

// classify maps Telegram API errors onto our sentinel errors.
func (c *Client) classify(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code == 403 {
		return fmt.Errorf("telegram send: %w", model.ErrRecipientGone)
	}
	msg := err.Error()
	if strings.Contains(msg, "blocked by the user") || strings.Contains(msg, "user is deactivated") {
		return fmt.Errorf("telegram send: %w", model.ErrRecipientGone)
	}
	return fmt.Errorf("telegram send: %w", err)
}

// categoryKeyboard builds the subscription picker shown after /start.
func categoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	labels := map[model.Category]string{
		model.CategoryGeneral:     "💼 Jobs",
		model.CategoryRemote:      "🌍 Remote",
		model.CategoryInternship:  "🎓 Internships",
		model.CategoryScholarship: "🏆 Scholarships",
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cat := range model.Categories() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labels[cat], callbackPrefix+string(cat)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
