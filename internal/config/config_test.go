package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
notify:
  discord:
    enabled: true
    webhook_url: https://discord.com/api/webhooks/xxx/yyy
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "wanwatcher", cfg.Server.Name)
	assert.Equal(t, "WANwatcher", cfg.Server.BotName)
	assert.Equal(t, 15*time.Minute, cfg.Monitor.Interval)
	assert.True(t, cfg.Monitor.IPv4)
	assert.True(t, cfg.Monitor.IPv6)
	assert.Contains(t, cfg.Monitor.IPv4Providers, "https://api.ipify.org")
	assert.Contains(t, cfg.Monitor.IPv6Providers, "https://api6.ipify.org")
	assert.Equal(t, "/var/lib/wanwatcher/state.json", cfg.State.File)
	assert.Equal(t, "HTML", cfg.Notify.Telegram.ParseMode)
	assert.Equal(t, "[WANwatcher]", cfg.Notify.Email.SubjectPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Update.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Update.Interval)
	assert.True(t, cfg.Update.OnStartup)
	assert.Equal(t, "noxied/wanwatcher", cfg.Update.Repo)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  name: gateway
  bot_name: HomeBot
  environment: production
monitor:
  interval: 5m
  ipv6: false
state:
  file: /tmp/state.json
geo:
  ipinfo_token: test-token
notify:
  telegram:
    enabled: true
    bot_token: "123456789:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
    chat_id: "-1001234567890"
  email:
    enabled: true
    smtp_host: smtp.example.com
    from: wanwatcher@example.com
    to:
      - admin@example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gateway", cfg.Server.Name)
	assert.Equal(t, 5*time.Minute, cfg.Monitor.Interval)
	assert.False(t, cfg.Monitor.IPv6)
	assert.Equal(t, "/tmp/state.json", cfg.State.File)
	assert.Equal(t, "test-token", cfg.Geo.IPInfoToken)
	assert.True(t, cfg.Notify.Telegram.Enabled)
	assert.True(t, cfg.Notify.Email.Enabled)
	assert.True(t, cfg.Notify.Email.UseTLS)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Monitor: MonitorConfig{
				Interval:      15 * time.Minute,
				IPv4:          true,
				IPv4Providers: []string{"https://api.ipify.org"},
			},
			State: StateConfig{File: "/tmp/state.json"},
			Notify: NotifyConfig{
				Discord: DiscordConfig{
					Enabled:    true,
					WebhookURL: "https://discord.com/api/webhooks/xxx/yyy",
				},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"both protocols disabled", func(c *Config) { c.Monitor.IPv4 = false }},
		{"interval too short", func(c *Config) { c.Monitor.Interval = 30 * time.Second }},
		{"no providers for enabled protocol", func(c *Config) { c.Monitor.IPv4Providers = nil }},
		{"missing state file", func(c *Config) { c.State.File = "" }},
		{"update interval too short", func(c *Config) {
			c.Update = UpdateConfig{Enabled: true, Interval: 30 * time.Minute, Repo: "example/wanwatcher"}
		}},
		{"update repo malformed", func(c *Config) {
			c.Update = UpdateConfig{Enabled: true, Interval: 24 * time.Hour, Repo: "wanwatcher"}
		}},
		{"no notify providers", func(c *Config) { c.Notify.Discord.Enabled = false }},
		{"discord enabled without webhook", func(c *Config) { c.Notify.Discord.WebhookURL = "" }},
		{"discord malformed webhook", func(c *Config) { c.Notify.Discord.WebhookURL = "not a url" }},
		{"telegram enabled without token", func(c *Config) {
			c.Notify.Telegram = TelegramConfig{Enabled: true, ChatID: "123"}
		}},
		{"telegram malformed token", func(c *Config) {
			c.Notify.Telegram = TelegramConfig{Enabled: true, BotToken: "not-a-token", ChatID: "123"}
		}},
		{"telegram bad chat id", func(c *Config) {
			c.Notify.Telegram = TelegramConfig{
				Enabled:  true,
				BotToken: "123456789:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
				ChatID:   "not-numeric",
			}
		}},
		{"email tls and ssl conflict", func(c *Config) {
			c.Notify.Email = EmailConfig{
				Enabled:  true,
				SMTPHost: "smtp.example.com",
				SMTPPort: 465,
				From:     "a@b.com",
				To:       []string{"c@d.com"},
				UseTLS:   true,
				UseSSL:   true,
			}
		}},
		{"email bad recipient", func(c *Config) {
			c.Notify.Email = EmailConfig{
				Enabled:  true,
				SMTPHost: "smtp.example.com",
				SMTPPort: 587,
				From:     "a@b.com",
				To:       []string{"not-an-email"},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestTelegramChatIDForms(t *testing.T) {
	base := TelegramConfig{
		Enabled:  true,
		BotToken: "123456789:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
	}

	for _, chatID := range []string{"123456789", "-1001234567890", "@mychannel"} {
		cfg := base
		cfg.ChatID = chatID
		assert.NoError(t, cfg.Validate(), chatID)
	}
}

func TestEmailRecipientsFlattening(t *testing.T) {
	cfg := EmailConfig{
		To: []string{"a@example.com, b@example.com", " c@example.com ", ""},
	}

	assert.Equal(t,
		[]string{"a@example.com", "b@example.com", "c@example.com"},
		cfg.Recipients())
}
