// Package config loads the service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the kidvo service.
type Config struct {
	Port                string        `mapstructure:"PORT"`
	DatabasePath        string        `mapstructure:"DATABASE_PATH"`
	JWTSecret           string        `mapstructure:"JWT_SECRET"`
	OperationTimeout    time.Duration `mapstructure:"OPERATION_TIMEOUT"`
	NotificationTimeout time.Duration `mapstructure:"NOTIFICATION_TIMEOUT"`
	MailTransport       string        `mapstructure:"MAIL_TRANSPORT"`
	RabbitMQURL         string        `mapstructure:"RABBITMQ_URL"`
	MailExchange        string        `mapstructure:"MAIL_EXCHANGE"`
	ModerationEmail     string        `mapstructure:"MODERATION_EMAIL"`
	AppURL              string        `mapstructure:"APP_URL"`
	DigestSchedule      string        `mapstructure:"DIGEST_SCHEDULE"`
	LogLevel            string        `mapstructure:"LOG_LEVEL"`
	LogFormat           string        `mapstructure:"LOG_FORMAT"`
}

var keys = []string{
	"PORT", "DATABASE_PATH", "JWT_SECRET", "OPERATION_TIMEOUT", "NOTIFICATION_TIMEOUT",
	"MAIL_TRANSPORT", "RABBITMQ_URL", "MAIL_EXCHANGE", "MODERATION_EMAIL", "APP_URL",
	"DIGEST_SCHEDULE", "LOG_LEVEL", "LOG_FORMAT",
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "kidvo.db")
	v.SetDefault("OPERATION_TIMEOUT", 5*time.Second)
	v.SetDefault("NOTIFICATION_TIMEOUT", 10*time.Second)
	v.SetDefault("MAIL_TRANSPORT", "log")
	v.SetDefault("MAIL_EXCHANGE", "kidvo.notifications")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("DIGEST_SCHEDULE", "0 8 * * *") // Every day at 08:00.
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.AutomaticEnv()

	// Bind explicitly so keys without a default still reach Unmarshal.
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.OperationTimeout <= 0 {
		errs = append(errs, errors.New("OPERATION_TIMEOUT must be positive"))
	}
	if c.NotificationTimeout <= 0 {
		errs = append(errs, errors.New("NOTIFICATION_TIMEOUT must be positive"))
	}
	switch c.MailTransport {
	case "log":
	case "amqp":
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required when MAIL_TRANSPORT=amqp"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_TRANSPORT %q must be log or amqp", c.MailTransport))
	}
	return errors.Join(errs...)
}
