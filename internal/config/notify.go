package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// fieldValidator returns the shared field-format validator
func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// telegramTokenPattern matches the bot API token shape: 123456789:ABC...
var telegramTokenPattern = regexp.MustCompile(`^\d{8,10}:[A-Za-z0-9_-]{30,50}$`)

// NotifyConfig represents notification configuration
type NotifyConfig struct {
	Discord  DiscordConfig  `mapstructure:"discord"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
}

// DiscordConfig represents Discord webhook notification configuration
type DiscordConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	AvatarURL  string `mapstructure:"avatar_url"`
}

// TelegramConfig represents Telegram bot notification configuration
type TelegramConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	BotToken  string `mapstructure:"bot_token"`
	ChatID    string `mapstructure:"chat_id"`
	ParseMode string `mapstructure:"parse_mode"` // HTML, Markdown
}

// EmailConfig represents SMTP email notification configuration
type EmailConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	SMTPHost      string   `mapstructure:"smtp_host"`
	SMTPPort      int      `mapstructure:"smtp_port"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	From          string   `mapstructure:"from"`
	To            []string `mapstructure:"to"`
	UseTLS        bool     `mapstructure:"use_tls"`
	UseSSL        bool     `mapstructure:"use_ssl"`
	SubjectPrefix string   `mapstructure:"subject_prefix"`
}

// Validate validates notification configuration. Enabled providers with
// missing or malformed credentials are startup errors.
func (cfg *NotifyConfig) Validate() error {
	if !cfg.Discord.Enabled && !cfg.Telegram.Enabled && !cfg.Email.Enabled {
		return fmt.Errorf("no notification providers enabled - at least one must be configured")
	}

	if cfg.Discord.Enabled {
		if err := cfg.Discord.Validate(); err != nil {
			return fmt.Errorf("invalid discord config: %w", err)
		}
	}

	if cfg.Telegram.Enabled {
		if err := cfg.Telegram.Validate(); err != nil {
			return fmt.Errorf("invalid telegram config: %w", err)
		}
	}

	if cfg.Email.Enabled {
		if err := cfg.Email.Validate(); err != nil {
			return fmt.Errorf("invalid email config: %w", err)
		}
	}

	return nil
}

// Validate validates Discord configuration
func (cfg *DiscordConfig) Validate() error {
	if cfg.WebhookURL == "" {
		return fmt.Errorf("webhook_url is required")
	}
	if err := fieldValidator().Var(cfg.WebhookURL, "url"); err != nil {
		return fmt.Errorf("webhook_url is not a valid URL: %s", cfg.WebhookURL)
	}
	if cfg.AvatarURL != "" {
		if err := fieldValidator().Var(cfg.AvatarURL, "url"); err != nil {
			return fmt.Errorf("avatar_url is not a valid URL: %s", cfg.AvatarURL)
		}
	}
	return nil
}

// Validate validates Telegram configuration
func (cfg *TelegramConfig) Validate() error {
	if cfg.BotToken == "" {
		return fmt.Errorf("bot_token is required")
	}
	if !telegramTokenPattern.MatchString(cfg.BotToken) {
		return fmt.Errorf("bot_token has invalid format")
	}
	if cfg.ChatID == "" {
		return fmt.Errorf("chat_id is required")
	}
	if !strings.HasPrefix(cfg.ChatID, "@") {
		if _, err := strconv.ParseInt(cfg.ChatID, 10, 64); err != nil {
			return fmt.Errorf("chat_id must be numeric or start with @")
		}
	}
	switch cfg.ParseMode {
	case "", "HTML", "Markdown", "MarkdownV2":
	default:
		return fmt.Errorf("parse_mode must be HTML or Markdown, got %s", cfg.ParseMode)
	}
	return nil
}

// Validate validates email configuration
func (cfg *EmailConfig) Validate() error {
	if cfg.SMTPHost == "" {
		return fmt.Errorf("smtp_host is required")
	}
	if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
		return fmt.Errorf("smtp_port must be between 1 and 65535, got %d", cfg.SMTPPort)
	}
	if cfg.From == "" {
		return fmt.Errorf("from address is required")
	}
	if err := fieldValidator().Var(cfg.From, "email"); err != nil {
		return fmt.Errorf("invalid from address: %s", cfg.From)
	}
	if len(cfg.To) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	for _, to := range cfg.Recipients() {
		if err := fieldValidator().Var(to, "email"); err != nil {
			return fmt.Errorf("invalid recipient address: %s", to)
		}
	}
	if cfg.UseTLS && cfg.UseSSL {
		return fmt.Errorf("use_tls and use_ssl cannot both be enabled")
	}
	return nil
}

// Recipients returns the cleaned recipient list. Entries may themselves be
// comma-separated, matching the flat env-style configuration.
func (cfg *EmailConfig) Recipients() []string {
	var out []string
	for _, entry := range cfg.To {
		for _, addr := range strings.Split(entry, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}
