// Package bot turns Telegram messages into archive uploads.
package bot

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/gchung00/daily-qt/internal/ingest"
	"github.com/gchung00/daily-qt/internal/telegram"
)

// Merger is the ingest workflow the handler feeds.
type Merger interface {
	Handle(ctx context.Context, msg ingest.Message) (ingest.Reply, error)
}

// Handler feeds text messages to the merger and sends back its reply.
type Handler struct {
	merger Merger
	client telegram.Client
	logger *slog.Logger
}

// NewHandler creates a new ingest handler
func NewHandler(merger Merger, client telegram.Client, logger *slog.Logger) *Handler {
	return &Handler{
		merger: merger,
		client: client,
		logger: logger,
	}
}

// Handle matches bot.HandlerFunc. Drafts belong to the chat, so every
// message of a chat extends the same draft.
func (h *Handler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID
	h.logger.Info("received message", "chat_id", chatID, "message_id", msg.ID, "length", len(msg.Text))

	reply, err := h.merger.Handle(ctx, ingest.Message{
		SubmitterID: chatID,
		MessageID:   msg.ID,
		Text:        msg.Text,
	})
	if err != nil {
		h.logger.Error("failed to handle message", "chat_id", chatID, "outcome", reply.Outcome.String(), "error", err)
	} else {
		h.logger.Info("message handled", "chat_id", chatID, "outcome", reply.Outcome.String(), "date", reply.Date)
	}

	if reply.Text == "" {
		return
	}
	if err := h.send(ctx, msg, reply.Text); err != nil {
		h.logger.Error("failed to send reply", "chat_id", chatID, "error", err)
	}
}

// send threads the reply under the submission in groups, where several
// people may be posting at once.
func (h *Handler) send(ctx context.Context, msg *models.Message, text string) error {
	if msg.Chat.Type == models.ChatTypePrivate {
		_, err := h.client.SendText(ctx, msg.Chat.ID, text)
		return err
	}
	_, err := h.client.ReplyToMessage(ctx, msg.Chat.ID, msg.ID, text)
	return err
}

// Register routes the menu commands to h. Everything else reaches h as the
// client's default handler.
func (h *Handler) Register(client *telegram.HTTPClient) {
	for _, c := range Commands {
		client.RegisterCommand(c.Name, h.Handle)
	}
}
