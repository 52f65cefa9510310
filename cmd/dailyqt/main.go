package main

import (
	"fmt"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/urfave/cli/v2"

	"github.com/gchung00/daily-qt/internal/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// newApp creates the CLI application with all commands. Without a command
// it serves.
func newApp() *cli.App {
	return &cli.App{
		Name:  "dailyqt",
		Usage: "Sermon archive fed by a Telegram bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Value:   "development",
				EnvVars: []string{"ENV"},
				Usage:   "Environment; selects config/<env>.yaml",
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			parseCmd(),
			reindexCmd(),
			importCmd(),
		},
	}
}

// setup loads and validates configuration and installs the default logger.
func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}
