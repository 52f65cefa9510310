package cache

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Middleware drops messages the ledger has already seen. Updates without a
// message pass through, and a ledger failure lets the update through rather
// than losing it.
func Middleware(ledger Ledger, logger *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil {
				next(ctx, b, update)
				return
			}

			seen, err := ledger.Seen(ctx, msg.Chat.ID, msg.ID, int64(msg.Date))
			if err != nil {
				logger.Error("failed to check processed messages", "chat_id", msg.Chat.ID, "message_id", msg.ID, "error", err)
			} else if seen {
				logger.Info("dropping redelivered message", "chat_id", msg.Chat.ID, "message_id", msg.ID)
				return
			}

			next(ctx, b, update)
		}
	}
}
