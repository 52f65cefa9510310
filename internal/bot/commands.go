package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/gchung00/daily-qt/internal/telegram"
)

// Command is one entry of the bot's command menu
type Command struct {
	Name        string
	Description string
}

// Commands lists the commands the upload bot answers. Every one of them is
// routed to the ingest handler, which tells them apart.
var Commands = []Command{
	{Name: "start", Description: "업로드 방법 안내 (How to upload)"},
	{Name: "help", Description: "업로드 방법 안내 (How to upload)"},
	{Name: "cancel", Description: "드래프트 삭제 (Discard draft)"},
}

// PublishCommands sets the command menu shown by Telegram clients
func PublishCommands(ctx context.Context, client telegram.Client) error {
	menu := make([]models.BotCommand, 0, len(Commands))
	for _, c := range Commands {
		menu = append(menu, models.BotCommand{Command: c.Name, Description: c.Description})
	}
	if err := client.SetCommands(ctx, menu); err != nil {
		return fmt.Errorf("failed to publish commands: %w", err)
	}
	return nil
}
