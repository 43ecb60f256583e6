package config

import (
	"fmt"
	"strings"
	"time"

	"wanwatcher/internal/logger"

	"github.com/spf13/viper"
)

// AppName is the name of the application
var AppName = "wanwatcher"

// Config represents the full application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	State   StateConfig   `mapstructure:"state"`
	Geo     GeoConfig     `mapstructure:"geo"`
	Update  UpdateConfig  `mapstructure:"update"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Log     logger.Config `mapstructure:"log"`
}

// ServerConfig represents labels embedded in outgoing messages
type ServerConfig struct {
	Name        string `mapstructure:"name"`
	BotName     string `mapstructure:"bot_name"`
	Environment string `mapstructure:"environment"`
}

// MonitorConfig represents monitoring behavior configuration
type MonitorConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	IPv4          bool          `mapstructure:"ipv4"`
	IPv6          bool          `mapstructure:"ipv6"`
	IPv4Providers []string      `mapstructure:"ipv4_providers"`
	IPv6Providers []string      `mapstructure:"ipv6_providers"`
}

// StateConfig represents durable state storage configuration
type StateConfig struct {
	File string `mapstructure:"file"`
}

// GeoConfig represents optional geographic enrichment configuration
type GeoConfig struct {
	IPInfoToken string `mapstructure:"ipinfo_token"`
}

// UpdateConfig represents release update check configuration
type UpdateConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	OnStartup bool          `mapstructure:"on_startup"`
	Repo      string        `mapstructure:"repo"` // owner/name on GitHub
}

// Load loads configuration from file with environment overrides
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/" + AppName)
		v.AddConfigPath("/etc/" + AppName)
	}
	v.SetConfigType("yaml")

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine when relying on env/defaults,
		// but an explicitly given path must exist.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "wanwatcher")
	v.SetDefault("server.bot_name", "WANwatcher")
	v.SetDefault("monitor.interval", 15*time.Minute)
	v.SetDefault("monitor.ipv4", true)
	v.SetDefault("monitor.ipv6", true)
	v.SetDefault("monitor.ipv4_providers", []string{
		"https://api.ipify.org",
		"https://ifconfig.me/ip",
		"https://icanhazip.com",
	})
	v.SetDefault("monitor.ipv6_providers", []string{
		"https://api6.ipify.org",
		"https://v6.ident.me",
		"https://ipv6.icanhazip.com",
	})
	v.SetDefault("state.file", "/var/lib/wanwatcher/state.json")
	v.SetDefault("update.enabled", true)
	v.SetDefault("update.interval", 24*time.Hour)
	v.SetDefault("update.on_startup", true)
	v.SetDefault("update.repo", "noxied/wanwatcher")
	v.SetDefault("notify.telegram.parse_mode", "HTML")
	v.SetDefault("notify.email.smtp_port", 587)
	v.SetDefault("notify.email.use_tls", true)
	v.SetDefault("notify.email.subject_prefix", "[WANwatcher]")
	v.SetDefault("log.level", "info")
}

// Validate validates the full configuration
func (cfg *Config) Validate() error {
	if !cfg.Monitor.IPv4 && !cfg.Monitor.IPv6 {
		return fmt.Errorf("at least one of monitor.ipv4 and monitor.ipv6 must be enabled")
	}

	if cfg.Monitor.Interval < time.Minute {
		return fmt.Errorf("monitor.interval must be at least 1 minute, got %s", cfg.Monitor.Interval)
	}

	if cfg.Monitor.IPv4 && len(cfg.Monitor.IPv4Providers) == 0 {
		return fmt.Errorf("monitor.ipv4 is enabled but no ipv4_providers are configured")
	}
	if cfg.Monitor.IPv6 && len(cfg.Monitor.IPv6Providers) == 0 {
		return fmt.Errorf("monitor.ipv6 is enabled but no ipv6_providers are configured")
	}

	if cfg.State.File == "" {
		return fmt.Errorf("state.file is required")
	}

	if cfg.Update.Enabled {
		if cfg.Update.Interval < time.Hour {
			return fmt.Errorf("update.interval must be at least 1 hour, got %s", cfg.Update.Interval)
		}
		if !strings.Contains(cfg.Update.Repo, "/") {
			return fmt.Errorf("update.repo must be in owner/name form, got %q", cfg.Update.Repo)
		}
	}

	if err := cfg.Notify.Validate(); err != nil {
		return fmt.Errorf("invalid notify config: %w", err)
	}

	return nil
}
