package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Fallback FallbackConfig
	Cache    CacheConfig
	Audit    AuditConfig
	WhatsApp WhatsAppConfig
	Sheets   SheetsConfig
	Jobs     JobsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for the remote MongoDB store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// FallbackConfig locates the local SQLite fallback database.
type FallbackConfig struct {
	Path string
}

// CacheConfig tunes the read-through cache.
type CacheConfig struct {
	DefaultTTL time.Duration
}

// AuditConfig holds the optional webhook mirror for audit rows.
type AuditConfig struct {
	WebhookURL   string
	WebhookToken string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// Alerts are disabled when the token is absent.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	AlertGroupID  string
}

// SheetsConfig contains configuration required to mirror the ledger to a
// Google Sheet. The mirror is disabled when the credentials path is absent.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SheetName       string
}

// JobsConfig holds the cron schedules of the background jobs.
type JobsConfig struct {
	ReplaySchedule    string
	FeedAlertSchedule string
	MirrorSchedule    string
	Timezone          string
}

// Enabled reports whether WhatsApp alerting is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.AlertGroupID != ""
}

// Enabled reports whether the ledger sheet mirror is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cacheTTL, err := durationEnv("CACHE_DEFAULT_TTL_SECONDS", 60*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "farmledger"),
		},
		Fallback: FallbackConfig{
			Path: getenvWithDefault("FALLBACK_DB_PATH", "farmledger-fallback.db"),
		},
		Cache: CacheConfig{
			DefaultTTL: cacheTTL,
		},
		Audit: AuditConfig{
			WebhookURL:   os.Getenv("AUDIT_WEBHOOK_URL"),
			WebhookToken: os.Getenv("AUDIT_WEBHOOK_TOKEN"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			AlertGroupID:  os.Getenv("WHATSAPP_ALERT_GROUP_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			SheetName:       getenvWithDefault("GOOGLE_SHEET_LEDGER_TAB", "Transactions"),
		},
		Jobs: JobsConfig{
			ReplaySchedule:    getenvWithDefault("REPLAY_CRON_SCHEDULE", "@every 2m"),
			FeedAlertSchedule: getenvWithDefault("FEED_ALERT_CRON_SCHEDULE", "0 7 * * *"),
			MirrorSchedule:    getenvWithDefault("LEDGER_MIRROR_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:          getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Fallback.Path == "" {
		return errors.New("FALLBACK_DB_PATH must be provided")
	}

	if c.Cache.DefaultTTL <= 0 {
		return errors.New("CACHE_DEFAULT_TTL_SECONDS must be positive")
	}

	if c.Jobs.ReplaySchedule == "" {
		return errors.New("REPLAY_CRON_SCHEDULE must be provided")
	}
	if c.Jobs.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	// Partial WhatsApp or Sheets settings are a misconfiguration; all-or-nothing.
	if !c.WhatsApp.Enabled() &&
		(c.WhatsApp.AccessToken != "" || c.WhatsApp.PhoneNumberID != "" || c.WhatsApp.AlertGroupID != "") {
		return errors.New("WHATSAPP_TOKEN, WHATSAPP_PHONE_NUMBER_ID and WHATSAPP_ALERT_GROUP_ID must be set together")
	}
	if !c.Sheets.Enabled() && (c.Sheets.CredentialsPath != "" || c.Sheets.SpreadsheetID != "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer number of seconds: %w", key, err)
	}
	return time.Duration(secs) * time.Second, nil
}
