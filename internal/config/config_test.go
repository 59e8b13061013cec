package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for name := range legacyEnv {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "data/reminders.db", cfg.Database.URL)
	assert.Equal(t, 5*time.Hour, cfg.ReportInterval())
	assert.Equal(t, time.Minute, cfg.NotifyInterval())
	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Local, cfg.Location())
}

func TestLoadRequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	assert.ErrorContains(t, err, "telegram token is required")
}

func TestLoadLayering(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
telegram:
  token: file-token
timezone: UTC
notify:
  check_seconds: 30
report:
  daily_at: "08:30"
log:
  format: json
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("REMINDER_NOTIFY__CHECK_SECONDS", "15")
	t.Setenv("REPORT_INTERVAL_HOURS", "0")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Telegram.Token)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 15*time.Second, cfg.NotifyInterval(), "env wins over file")
	assert.Equal(t, "08:30", cfg.Report.DailyAt)
	assert.Equal(t, time.Duration(0), cfg.ReportInterval())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "t")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "t", cfg.Telegram.Token)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Telegram: TelegramConfig{Token: "t", Timeout: 60},
			Notify:   NotifyConfig{Enabled: true, CheckSeconds: 60},
			Timezone: "UTC",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "invalid timezone"},
		{"bad daily time", func(c *Config) { c.Report.DailyAt = "25:00" }, "report.daily_at"},
		{"negative interval", func(c *Config) { c.Report.IntervalHours = -1 }, "interval_hours"},
		{"zero check interval", func(c *Config) { c.Notify.CheckSeconds = 0 }, "check_seconds"},
		{"notify disabled ignores interval", func(c *Config) { c.Notify = NotifyConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 5, m)

	for _, raw := range []string{"", "7", "24:00", "12:60", "ab:cd"} {
		_, _, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
}
