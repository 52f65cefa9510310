package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces every environment override, e.g.
// DAILYQT_DATABASE__HOST sets database.host.
const envPrefix = "DAILYQT_"

// Storage backends
const (
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

// Config holds all application configuration
type Config struct {
	Environment           string         `koanf:"environment"`
	LogLevel              string         `koanf:"log_level"`
	Telegram              TelegramConfig `koanf:"telegram"`
	Database              DatabaseConfig `koanf:"database"`
	Storage               StorageConfig  `koanf:"storage"`
	Redis                 RedisConfig    `koanf:"redis"`
	HTTP                  HTTPConfig     `koanf:"http"`
	Ingest                IngestConfig   `koanf:"ingest"`
	Dedup                 DedupConfig    `koanf:"dedup"`
	Admin                 AdminConfig    `koanf:"admin"`
	YouTube               YouTubeConfig  `koanf:"youtube"`
	AllowedChatIDs        []int64        `koanf:"allowed_chat_ids"`
	AutoLeaveUnauthorized bool           `koanf:"auto_leave_unauthorized"`
}

// TelegramConfig holds Telegram bot configuration. An empty token disables
// the bot; a webhook URL switches it from polling to webhook delivery.
type TelegramConfig struct {
	Token         string `koanf:"token"`
	Webhook       string `koanf:"webhook"`
	WebhookSecret string `koanf:"webhook_secret"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
	SSLMode  string `koanf:"sslmode"`
}

// StorageConfig selects where sermons live
type StorageConfig struct {
	Backend    string        `koanf:"backend"`     // postgres | file
	Dir        string        `koanf:"dir"`         // file backend: one <date>.txt per sermon
	IndexFile  string        `koanf:"index_file"`  // file backend: parsed index
	DraftsFile string        `koanf:"drafts_file"` // file backend: pending drafts
	Timeout    time.Duration `koanf:"timeout"`     // bound on every store call
}

// RedisConfig holds redis connection configuration. An empty address
// disables redis.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	PageTTL  time.Duration `koanf:"page_ttl"`
	DraftTTL time.Duration `koanf:"draft_ttl"`
}

// HTTPConfig holds the API server configuration
type HTTPConfig struct {
	Listen          string        `koanf:"listen"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
	SecureCookies   bool          `koanf:"secure_cookies"`
}

// IngestConfig tunes the chat draft workflow
type IngestConfig struct {
	ShortMessageRunes int    `koanf:"short_message_runes"`
	DateScanLines     int    `koanf:"date_scan_lines"`
	Timezone          string `koanf:"timezone"`
}

// Location resolves Timezone.
func (c *IngestConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DedupConfig holds processed-message ledger configuration
type DedupConfig struct {
	CleanInterval time.Duration `koanf:"clean_interval"` // e.g., "10m"
	KeepDuration  time.Duration `koanf:"keep_duration"`  // e.g., "48h"
}

// AdminConfig holds the shared admin credentials. An empty email disables
// admin login. Sessions are signed with SessionSecret; when it is empty a
// random secret is used and sessions end with the process.
type AdminConfig struct {
	Email         string        `koanf:"email"`
	Pin           string        `koanf:"pin"`
	SessionSecret string        `koanf:"session_secret"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	LoginPerMin   int           `koanf:"login_per_min"`
}

// YouTubeConfig holds the oEmbed lookup configuration
type YouTubeConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Timeout  time.Duration `koanf:"timeout"`
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}

// SlogLevel parses the configured log level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendPostgres:
	case BackendFile:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the file backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Telegram.Webhook != "" && c.Telegram.WebhookSecret == "" {
		return errors.New("telegram.webhook_secret is required in webhook mode")
	}
	if c.Admin.Email != "" && c.Admin.Pin == "" {
		return errors.New("admin.pin is required when admin.email is set")
	}
	if _, err := c.Ingest.Location(); err != nil {
		return err
	}
	return nil
}

// Load loads configuration from a .env file, environment variables and
// config files
func Load(environment string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	// Load defaults first (lowest priority)
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// Load from config file based on environment
	configFile := fmt.Sprintf("config/%s.yaml", environment)
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		// Config file is optional
		slog.Debug("config file not loaded", "file", configFile, "error", err)
	}

	// Environment variables override config file values
	lowerPrefix := strings.ToLower(envPrefix)
	if err := k.Load(env.ProviderWithValue(envPrefix, "__", func(key string, value string) (string, interface{}) {
		finalKey := strings.TrimPrefix(strings.ToLower(key), lowerPrefix)

		// Split comma separated values for keys that are slices
		switch k.Get(strings.ReplaceAll(finalKey, "__", ".")).(type) {
		case []interface{}, []string, []int64:
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return finalKey, parts
		}

		return finalKey, value
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Environment = environment

	return &cfg, nil
}

// loadDotEnv copies a .env file into the process environment. Variables
// that are already set win; a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// defaultConfig returns the default configuration values
func defaultConfig() Config {
	return Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		Storage: StorageConfig{
			Backend:    BackendPostgres,
			Dir:        "sermons",
			IndexFile:  "data/sermons-index.json",
			DraftsFile: "data/drafts.json",
			Timeout:    10 * time.Second,
		},
		Redis: RedisConfig{
			PageTTL:  time.Hour,
			DraftTTL: 7 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Listen:          ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Ingest: IngestConfig{
			ShortMessageRunes: 100,
			DateScanLines:     5,
			Timezone:          "Asia/Seoul",
		},
		Dedup: DedupConfig{
			CleanInterval: 10 * time.Minute,
			KeepDuration:  48 * time.Hour,
		},
		Admin: AdminConfig{
			SessionTTL:  7 * 24 * time.Hour,
			LoginPerMin: 5,
		},
		YouTube: YouTubeConfig{
			Endpoint: "https://www.youtube.com/oembed",
			Timeout:  5 * time.Second,
		},
	}
}
