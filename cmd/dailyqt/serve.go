package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gchung00/daily-qt/internal/archive"
	"github.com/gchung00/daily-qt/internal/bot"
	"github.com/gchung00/daily-qt/internal/bot/middleware"
	"github.com/gchung00/daily-qt/internal/cache"
	"github.com/gchung00/daily-qt/internal/config"
	"github.com/gchung00/daily-qt/internal/httpserver"
	"github.com/gchung00/daily-qt/internal/ingest"
	"github.com/gchung00/daily-qt/internal/telegram"
	"github.com/gchung00/daily-qt/internal/youtube"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the bot, the API server and the dedup cleaner",
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	logger.Info("starting dailyqt", "environment", cfg.Environment)

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	service := archive.NewService(b.store, b.index, b.pages, logger)

	// Create errgroup for concurrent component management
	g, ctx := errgroup.WithContext(ctx)

	// Component 1: Telegram bot
	var webhook http.Handler
	if cfg.Telegram.Token == "" {
		logger.Warn("telegram.token not set, bot disabled")
	} else {
		client, err := newTelegram(ctx, cfg, b, service, logger)
		if err != nil {
			return err
		}

		if cfg.Telegram.Webhook != "" {
			if err := client.SetWebhook(ctx, cfg.Telegram.Webhook, cfg.Telegram.WebhookSecret); err != nil {
				return fmt.Errorf("failed to set webhook: %w", err)
			}
			webhook = client.WebhookHandler()
			g.Go(func() error {
				logger.Info("starting bot webhook", "url", cfg.Telegram.Webhook)
				return client.StartWebhook(ctx)
			})
		} else {
			if err := client.DeleteWebhook(ctx); err != nil {
				return fmt.Errorf("failed to delete webhook: %w", err)
			}
			g.Go(func() error {
				logger.Info("starting bot polling")
				return client.Start(ctx)
			})
		}
	}

	// Component 2: Dedup ledger cleaner
	if b.cleaner != nil {
		g.Go(func() error {
			return b.cleaner.Start(ctx)
		})
	}

	// Component 3: HTTP API
	auth, err := httpserver.NewAuth(&cfg.Admin, cfg.HTTP.SecureCookies, logger)
	if err != nil {
		return err
	}
	srv := httpserver.New(&cfg.HTTP, httpserver.Deps{
		Archive: service,
		Pages:   b.pages,
		Videos:  youtube.NewClient(cfg.YouTube.Endpoint, cfg.YouTube.Timeout),
		Auth:    auth,
		Webhook: webhook,
	}, logger)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	logger.Info("all components started, waiting for shutdown signal")

	// Wait for all components to complete
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("graceful shutdown completed")
			return nil
		}
		return fmt.Errorf("component error: %w", err)
	}

	logger.Info("application stopped")
	return nil
}

// newTelegram builds the bot client and routes every message through the
// draft merger.
func newTelegram(ctx context.Context, cfg *config.Config, b *backend, service *archive.Service, logger *slog.Logger) (*telegram.HTTPClient, error) {
	loc, err := cfg.Ingest.Location()
	if err != nil {
		return nil, err
	}

	mws := []tgbot.Middleware{
		middleware.ChatFilter(cfg.AllowedChatIDs, cfg.AutoLeaveUnauthorized, logger),
	}
	if b.ledger != nil {
		mws = append(mws, cache.Middleware(b.ledger, logger))
	}

	// The default handler is bound once the handler exists; it needs the client.
	var handler *bot.Handler
	opts := []telegram.Option{
		telegram.WithMiddlewares(mws...),
		telegram.WithHandler(func(ctx context.Context, tb *tgbot.Bot, update *models.Update) {
			handler.Handle(ctx, tb, update)
		}),
	}
	if cfg.Telegram.WebhookSecret != "" {
		opts = append(opts, telegram.WithWebhookSecret(cfg.Telegram.WebhookSecret))
	}

	client, err := telegram.NewHTTPClient(cfg.Telegram.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	merger := ingest.NewMerger(service, b.drafts, ingest.Options{
		ShortMessageRunes: cfg.Ingest.ShortMessageRunes,
		DateScanLines:     cfg.Ingest.DateScanLines,
		StoreTimeout:      cfg.Storage.Timeout,
		Location:          loc,
	}, logger)
	handler = bot.NewHandler(merger, client, logger)
	handler.Register(client)

	// Verify bot
	meCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	me, err := client.GetMe(meCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify bot token: %w", err)
	}
	logger.Info("bot verified", "username", me.Username)

	if err := bot.PublishCommands(ctx, client); err != nil {
		logger.Warn("failed to publish bot commands", "error", err)
	}
	return client, nil
}
