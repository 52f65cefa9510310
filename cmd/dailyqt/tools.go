package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gchung00/daily-qt/internal/archive"
	"github.com/gchung00/daily-qt/internal/config"
	"github.com/gchung00/daily-qt/internal/sermon"
	"github.com/gchung00/daily-qt/internal/storage"
)

// migrateCmd creates the migrate command.
func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the postgres schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: withMigrator(func(c *cli.Context, m *storage.Migrator) error {
					return m.Up()
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Aliases: []string{"n"}, Value: 1, Usage: "Migrations to roll back; 0 rolls back all"},
				},
				Action: withMigrator(func(c *cli.Context, m *storage.Migrator) error {
					if n := c.Int("steps"); n > 0 {
						return m.Steps(-n)
					}
					return m.Down()
				}),
			},
			{
				Name:  "version",
				Usage: "Print the applied schema version",
				Action: withMigrator(func(c *cli.Context, m *storage.Migrator) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					return outputJSON(map[string]any{"version": version, "dirty": dirty})
				}),
			},
			{
				Name:      "force",
				Usage:     "Mark a version as applied without running it",
				ArgsUsage: "<version>",
				Action: withMigrator(func(c *cli.Context, m *storage.Migrator) error {
					if c.NArg() != 1 {
						return cli.Exit("force needs exactly one version", 1)
					}
					var version int
					if _, err := fmt.Sscanf(c.Args().First(), "%d", &version); err != nil {
						return cli.Exit(fmt.Sprintf("invalid version %q", c.Args().First()), 1)
					}
					return m.Force(version)
				}),
			},
		},
	}
}

func withMigrator(fn func(c *cli.Context, m *storage.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, _, err := setup(c)
		if err != nil {
			return err
		}
		if cfg.Storage.Backend != config.BackendPostgres {
			return cli.Exit("migrations only apply to the postgres backend", 1)
		}

		db, err := storage.New(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		m, err := storage.NewMigrator(db.DB)
		if err != nil {
			return err
		}
		defer m.Close()

		return fn(c, m)
	}
}

// parseCmd creates the parse command.
func parseCmd() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse a transcript and print its structure as JSON",
		ArgsUsage: "<file|->",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Date key to stamp on the result (YYYY-MM-DD)"},
			&cli.BoolFlag{Name: "plain", Usage: "Print the rendered plain text instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("parse needs exactly one file, or - for stdin", 1)
			}

			text, err := readInput(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			p := sermon.Parse(text)
			if date := c.String("date"); date != "" {
				if err := archive.ValidateDate(date); err != nil {
					return cli.Exit(err.Error(), 1)
				}
				p = archive.Parse(date, text)
			}
			if c.Bool("plain") {
				_, err := fmt.Fprintln(os.Stdout, sermon.PlainText(p))
				return err
			}
			return outputJSON(p)
		},
	}
}

// reindexCmd creates the reindex command.
func reindexCmd() *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Rebuild the parsed index from every stored transcript",
		Action: func(c *cli.Context) error {
			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}

			b, err := openBackend(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			n, err := archive.NewService(b.store, b.index, b.pages, logger).Rebuild(c.Context)
			if err != nil {
				return err
			}
			return outputJSON(map[string]int{"indexed": n})
		},
	}
}

// importResult summarizes a bulk import.
type importResult struct {
	Imported []string          `json:"imported"`
	Skipped  []string          `json:"skipped"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// importCmd creates the import command.
func importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Load <date>.txt transcripts from a directory; existing dates are skipped",
		ArgsUsage: "<dir>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("import needs exactly one directory", 1)
			}

			cfg, logger, err := setup(c)
			if err != nil {
				return err
			}

			b, err := openBackend(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			service := archive.NewService(b.store, b.index, b.pages, logger)
			res, err := importDir(c.Context, service, c.Args().First())
			if err != nil {
				return err
			}
			return outputJSON(res)
		},
	}
}

// saver is the part of archive.Service an import needs.
type saver interface {
	Save(ctx context.Context, date, text string, force bool) error
}

// importDir saves every <date>.txt in dir without overwriting, oldest first.
// Other files are ignored.
func importDir(ctx context.Context, dst saver, dir string) (importResult, error) {
	res := importResult{Imported: []string{}, Skipped: []string{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var dates []string
	for _, e := range entries {
		date, ok := strings.CutSuffix(e.Name(), ".txt")
		if e.IsDir() || !ok || archive.ValidateDate(date) != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		raw, err := os.ReadFile(filepath.Join(dir, date+".txt"))
		if err != nil {
			return res, fmt.Errorf("failed to read %s: %w", date, err)
		}

		switch err := dst.Save(ctx, date, string(raw), false); {
		case err == nil:
			res.Imported = append(res.Imported, date)
		case errors.Is(err, archive.ErrConflict):
			res.Skipped = append(res.Skipped, date)
		default:
			if res.Failed == nil {
				res.Failed = make(map[string]string)
			}
			res.Failed[date] = err.Error()
		}
	}
	return res, nil
}

func readInput(name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
