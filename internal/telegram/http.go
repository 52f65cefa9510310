package telegram

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HTTPClient is a Client on top of go-telegram/bot. It also owns update
// delivery, by long polling or by webhook.
type HTTPClient struct {
	bot *bot.Bot
}

// clientOptions holds configuration options
type clientOptions struct {
	debug         bool
	serverURL     string
	webhookSecret string
	middlewares   []bot.Middleware
	handler       bot.HandlerFunc
}

// Option configures the HTTPClient
type Option func(*clientOptions)

// WithDebug enables debug mode
func WithDebug() Option {
	return func(c *clientOptions) {
		c.debug = true
	}
}

// WithServerURL points the client at another Bot API server
func WithServerURL(url string) Option {
	return func(c *clientOptions) {
		c.serverURL = url
	}
}

// WithWebhookSecret makes the webhook handler reject deliveries that do
// not carry secret
func WithWebhookSecret(secret string) Option {
	return func(c *clientOptions) {
		c.webhookSecret = secret
	}
}

// WithMiddlewares wraps every update handler
func WithMiddlewares(middlewares ...bot.Middleware) Option {
	return func(c *clientOptions) {
		c.middlewares = append(c.middlewares, middlewares...)
	}
}

// WithHandler sets the handler for updates no registered handler matched
func WithHandler(handler bot.HandlerFunc) Option {
	return func(c *clientOptions) {
		c.handler = handler
	}
}

// NewHTTPClient creates a client for token. It does not call the API.
func NewHTTPClient(token string, opts ...Option) (*HTTPClient, error) {
	options := &clientOptions{
		debug: os.Getenv("DEBUG") == "true",
	}
	for _, opt := range opts {
		opt(options)
	}

	botOpts := []bot.Option{
		bot.WithSkipGetMe(),
	}
	if options.debug {
		botOpts = append(botOpts, bot.WithDebug())
	}
	if options.serverURL != "" {
		botOpts = append(botOpts, bot.WithServerURL(options.serverURL))
	}
	if options.webhookSecret != "" {
		botOpts = append(botOpts, bot.WithWebhookSecretToken(options.webhookSecret))
	}
	if len(options.middlewares) > 0 {
		botOpts = append(botOpts, bot.WithMiddlewares(options.middlewares...))
	}
	if options.handler != nil {
		botOpts = append(botOpts, bot.WithDefaultHandler(options.handler))
	}

	b, err := bot.New(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &HTTPClient{bot: b}, nil
}

// RegisterCommand routes messages starting with /command to handler
func (c *HTTPClient) RegisterCommand(command string, handler bot.HandlerFunc) {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/"+command, bot.MatchTypeCommandStartOnly, handler)
}

// GetMe implements the Client interface
func (c *HTTPClient) GetMe(ctx context.Context) (*models.User, error) {
	return c.bot.GetMe(ctx)
}

// SendText implements the Client interface
func (c *HTTPClient) SendText(ctx context.Context, chatID int64, text string) (*models.Message, error) {
	return c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

// ReplyToMessage implements the Client interface
func (c *HTTPClient) ReplyToMessage(ctx context.Context, chatID int64, messageID int, text string) (*models.Message, error) {
	return c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
		ReplyParameters: &models.ReplyParameters{
			MessageID:                messageID,
			AllowSendingWithoutReply: true,
		},
	})
}

// SetWebhook implements the Client interface
func (c *HTTPClient) SetWebhook(ctx context.Context, url, secret string) error {
	_, err := c.bot.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         url,
		SecretToken: secret,
	})
	return err
}

// DeleteWebhook implements the Client interface
func (c *HTTPClient) DeleteWebhook(ctx context.Context) error {
	_, err := c.bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{
		DropPendingUpdates: false,
	})
	return err
}

// SetCommands implements the Client interface
func (c *HTTPClient) SetCommands(ctx context.Context, commands []models.BotCommand) error {
	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	return err
}

// Start long-polls for updates until ctx is cancelled
func (c *HTTPClient) Start(ctx context.Context) error {
	c.bot.Start(ctx)
	return ctx.Err()
}

// StartWebhook processes webhook deliveries until ctx is cancelled. The
// deliveries themselves arrive through WebhookHandler.
func (c *HTTPClient) StartWebhook(ctx context.Context) error {
	c.bot.StartWebhook(ctx)
	return ctx.Err()
}

// WebhookHandler accepts webhook deliveries
func (c *HTTPClient) WebhookHandler() http.Handler {
	return c.bot.WebhookHandler()
}
