// Package conf loads application configuration from file, environment,
// and defaults.
package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Detector  DetectorConfig  `mapstructure:"detector"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DatabaseConfig encapsulates SQLite connectivity.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// HTTPConfig sets the API listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// SMTPConfig covers the outbound email relay.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// WebhookConfig routes alert notifications to an HTTP endpoint instead
// of email when a URL is set.
type WebhookConfig struct {
	URL     string   `mapstructure:"url"`
	Timeout Duration `mapstructure:"timeout"`
}

// SchedulerConfig governs the background evaluation and delivery cadence.
type SchedulerConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	EvaluateInterval Duration `mapstructure:"evaluate_interval"`
	NotifyInterval   Duration `mapstructure:"notify_interval"`
}

// DetectorConfig tunes the rolling-window spike detector.
type DetectorConfig struct {
	WindowSize          int     `mapstructure:"window_size"`
	ThresholdMultiplier float64 `mapstructure:"threshold_multiplier"`
}

// Load builds configuration from file, environment, and defaults. An
// empty path searches for config.yaml in the working directory; finding
// no file there is not an error, defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SURGEALERTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "surge-alerts")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")

	v.SetDefault("database.path", "surge_alerts.db")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("smtp.port", 587)

	v.SetDefault("webhook.timeout", "10s")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.evaluate_interval", "1m")
	v.SetDefault("scheduler.notify_interval", "1m")

	v.SetDefault("detector.window_size", 60)
	v.SetDefault("detector.threshold_multiplier", 2.0)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = DurationDecodeHook()
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.EvaluateInterval <= 0 {
			return fmt.Errorf("scheduler.evaluate_interval must be greater than zero")
		}
		if c.Scheduler.NotifyInterval <= 0 {
			return fmt.Errorf("scheduler.notify_interval must be greater than zero")
		}
	}
	if c.Detector.WindowSize <= 0 {
		return fmt.Errorf("detector.window_size must be greater than zero")
	}
	if c.Detector.ThresholdMultiplier <= 0 {
		return fmt.Errorf("detector.threshold_multiplier must be greater than zero")
	}
	return nil
}
