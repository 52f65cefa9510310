// Package middleware provides bot middleware for filtering updates.
package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ChatFilter lets through only updates from allowedChatIDs. An empty list
// allows every chat. With autoLeave the bot leaves chats it is not allowed in.
func ChatFilter(allowedChatIDs []int64, autoLeave bool, logger *slog.Logger) bot.Middleware {
	allowed := make(map[int64]struct{}, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = struct{}{}
	}
	allowAll := len(allowed) == 0

	logger.Info("chat filter configured", "allow_all", allowAll, "auto_leave", autoLeave, "chat_ids", allowedChatIDs)

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			chatID := ChatID(update)
			if chatID == 0 {
				return
			}

			if _, ok := allowed[chatID]; !allowAll && !ok {
				logger.Warn("ignoring update from unauthorized chat", "chat_id", chatID)
				if autoLeave && b != nil {
					leave(ctx, b, chatID, logger)
				}
				return
			}

			next(ctx, b, update)
		}
	}
}

func leave(ctx context.Context, b *bot.Bot, chatID int64, logger *slog.Logger) {
	logger.Info("leaving unauthorized chat", "chat_id", chatID)
	if _, err := b.LeaveChat(ctx, &bot.LeaveChatParams{ChatID: chatID}); err != nil {
		logger.Error("failed to leave chat", "chat_id", chatID, "error", err)
	}
}

// ChatID returns the chat an update belongs to, or 0 for updates the upload
// bot has no use for.
func ChatID(update *models.Update) int64 {
	if update == nil {
		return 0
	}

	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.EditedMessage != nil:
		return update.EditedMessage.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.ID
	case update.MyChatMember != nil:
		return update.MyChatMember.Chat.ID
	case update.ChatMember != nil:
		return update.ChatMember.Chat.ID
	default:
		return 0
	}
}
