// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	BotToken       string
	Port           string
	PublicURL      string // public base URL for the webhook; empty = long polling
	WebhookSecret  string
	DBPath         string
	ReportChatID   int64 // chat that receives composed reports
	AllowedChatIDs []int64
	ProbeTimeout   time.Duration
	SessionTTL     time.Duration
	WatchInterval  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	allowed, err := parseChatIDs(getEnv("ALLOWED_CHAT_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid ALLOWED_CHAT_IDS: %w", err)
	}

	reportChatID, err := parseOptionalInt64(getEnv("REPORT_CHAT_ID", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_CHAT_ID: %w", err)
	}

	cfg := &Config{
		BotToken:       getEnv("BOT_TOKEN", ""),
		Port:           getEnv("PORT", "8080"),
		PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		DBPath:         getEnv("DB_PATH", "./data/vigil.db"),
		ReportChatID:   reportChatID,
		AllowedChatIDs: allowed,
		ProbeTimeout:   getEnvDuration("PROBE_TIMEOUT", 10*time.Second),
		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		WatchInterval:  getEnvDuration("WATCH_INTERVAL", 15*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.PublicURL != "" && c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET is required when PUBLIC_URL is set")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("PROBE_TIMEOUT must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("WATCH_INTERVAL must be > 0")
	}
	return nil
}

// UseWebhook reports whether updates arrive over the webhook rather than
// long polling.
func (c *Config) UseWebhook() bool {
	return c.PublicURL != ""
}

// ChatAllowed reports whether the bot should handle updates from chatID.
// An empty allowlist admits every chat.
func (c *Config) ChatAllowed(chatID int64) bool {
	if len(c.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func parseChatIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chat id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseOptionalInt64(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
