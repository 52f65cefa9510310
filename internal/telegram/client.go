// Package telegram wraps the go-telegram/bot client for the upload bot.
package telegram

import (
	"context"

	"github.com/go-telegram/bot/models"
)

// Client defines the Bot API calls the upload bot makes
type Client interface {
	// GetMe returns information about the bot
	GetMe(ctx context.Context) (*models.User, error)

	// SendText sends a plain text message to a chat
	SendText(ctx context.Context, chatID int64, text string) (*models.Message, error)

	// ReplyToMessage sends a reply to a specific message
	ReplyToMessage(ctx context.Context, chatID int64, messageID int, text string) (*models.Message, error)

	// SetWebhook points Telegram at url. Deliveries carry secret in the
	// X-Telegram-Bot-Api-Secret-Token header.
	SetWebhook(ctx context.Context, url, secret string) error

	// DeleteWebhook switches the bot back to polling
	DeleteWebhook(ctx context.Context) error

	// SetCommands publishes the command menu
	SetCommands(ctx context.Context, commands []models.BotCommand) error
}
