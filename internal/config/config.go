package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides: REMINDER_NOTIFY__CHECK_SECONDS
// sets notify.check_seconds.
const EnvPrefix = "REMINDER_"

// Config keeps runtime settings for the bot.
type Config struct {
	Telegram TelegramConfig `koanf:"telegram"`
	Database DatabaseConfig `koanf:"database"`
	Timezone string         `koanf:"timezone"`
	Report   ReportConfig   `koanf:"report"`
	Notify   NotifyConfig   `koanf:"notify"`
	Log      LogConfig      `koanf:"log"`

	location *time.Location
}

type TelegramConfig struct {
	Token   string `koanf:"token"`
	Timeout int    `koanf:"timeout"` // long-poll seconds
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type ReportConfig struct {
	IntervalHours int    `koanf:"interval_hours"`
	DailyAt       string `koanf:"daily_at"` // "HH:MM"; replaces the interval when set
}

type NotifyConfig struct {
	Enabled      bool `koanf:"enabled"`
	CheckSeconds int  `koanf:"check_seconds"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// legacyEnv maps the variables older deployments used.
var legacyEnv = map[string]string{
	"TELEGRAM_TOKEN":        "telegram.token",
	"DATABASE_URL":          "database.url",
	"REPORT_INTERVAL_HOURS": "report.interval_hours",
	"TZ_NAME":               "timezone",
}

// Load layers defaults, the optional YAML file at configPath and the
// environment, then validates the result.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	for name, key := range legacyEnv {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("set %s: %w", key, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Database.URL = expandPath(strings.TrimSpace(cfg.Database.URL))
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks required values and resolves the timezone.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required (set TELEGRAM_TOKEN or telegram.token)")
	}
	if c.Telegram.Timeout <= 0 {
		return fmt.Errorf("telegram.timeout must be positive")
	}
	if c.Report.IntervalHours < 0 {
		return fmt.Errorf("report.interval_hours must not be negative")
	}
	if c.Report.DailyAt != "" {
		if _, _, err := ParseClock(c.Report.DailyAt); err != nil {
			return fmt.Errorf("report.daily_at: %w", err)
		}
	}
	if c.Notify.Enabled && c.Notify.CheckSeconds <= 0 {
		return fmt.Errorf("notify.check_seconds must be positive")
	}

	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location is the timezone used as "now" for parsing and digests.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// ReportInterval is zero when interval reports are disabled.
func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.Report.IntervalHours) * time.Hour
}

func (c *Config) NotifyInterval() time.Duration {
	return time.Duration(c.Notify.CheckSeconds) * time.Second
}

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(raw string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}

func loadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
