// Package config loads the process's environment configuration, ported
// from the teacher's caarlos0/env + godotenv pattern.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all process configuration, read from the environment with
// defaults applied by the env tag.
type Config struct {
	RabbitMQUser string `env:"TIX_RABBITMQ_USER,required"`
	RabbitMQPass string `env:"TIX_RABBITMQ_PASS,required"`
	RabbitMQHost string `env:"TIX_RABBITMQ_HOST" envDefault:"localhost"`
	RabbitMQPort int    `env:"TIX_RABBITMQ_PORT" envDefault:"5672"`

	ProcessorQueue string `env:"TIX_CONDENSER_PROCESSOR_QUEUE,required"`

	APIHost     string        `env:"TIX_API_HOST,required"`
	APIPort     int           `env:"TIX_API_PORT" envDefault:"443"`
	APISSL      bool          `env:"TIX_API_SSL" envDefault:"true"`
	APIUser     string        `env:"TIX_API_USER,required"`
	APIPassword string        `env:"TIX_API_PASSWORD,required"`
	APITimeout  time.Duration `env:"TIX_API_TIMEOUT" envDefault:"30s"`

	LogLevel string `env:"TIX_LOG_LEVEL" envDefault:"INFO"`

	MetricsAddr     string        `env:"METRICS_ADDR" envDefault:":9090"`
	MetricsInterval time.Duration `env:"METRICS_INTERVAL" envDefault:"15s"`

	QueueReconnectMax time.Duration `env:"TIX_QUEUE_RECONNECT_MAX" envDefault:"5m"`
}

// Load reads the .env file (if present) then parses environment variables
// into a Config, validating the result.
func Load(logger *zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if logger != nil {
			logger.Info().Msg("no .env file found, using environment variables only")
		}
	} else if logger != nil {
		logger.Info().Msg("loaded configuration from .env file")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, nil
}

var validLogLevels = map[string]bool{
	"FATAL": true, "ERROR": true, "WARN": true, "INFO": true, "DEBUG": true, "ALL": true,
}

// Validate checks range, enum, and logical constraints.
func (c *Config) Validate() error {
	if c.RabbitMQPort < 1 || c.RabbitMQPort > 65535 {
		return fmt.Errorf("TIX_RABBITMQ_PORT must be 1-65535, got %d", c.RabbitMQPort)
	}
	if c.APIPort < 1 || c.APIPort > 65535 {
		return fmt.Errorf("TIX_API_PORT must be 1-65535, got %d", c.APIPort)
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("TIX_LOG_LEVEL must be one of FATAL,ERROR,WARN,INFO,DEBUG,ALL (got: %s)", c.LogLevel)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("TIX_API_TIMEOUT must be > 0, got %s", c.APITimeout)
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("METRICS_INTERVAL must be > 0, got %s", c.MetricsInterval)
	}
	return nil
}

// AMQPURL builds the AMQP connection string from the RabbitMQ fields.
func (c *Config) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.RabbitMQUser, c.RabbitMQPass, c.RabbitMQHost, c.RabbitMQPort)
}

// ZerologLevel maps the TIX_LOG_LEVEL enum onto zerolog's level type.
func (c *Config) ZerologLevel() zerolog.Level {
	switch c.LogLevel {
	case "FATAL":
		return zerolog.FatalLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "WARN":
		return zerolog.WarnLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "ALL":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// LogConfig logs the loaded configuration (credentials redacted) via
// structured logging.
func (c *Config) LogConfig(logger zerolog.Logger) {
	logger.Info().
		Str("rabbitmq_host", c.RabbitMQHost).
		Int("rabbitmq_port", c.RabbitMQPort).
		Str("processor_queue", c.ProcessorQueue).
		Str("api_host", c.APIHost).
		Int("api_port", c.APIPort).
		Bool("api_ssl", c.APISSL).
		Dur("api_timeout", c.APITimeout).
		Str("log_level", c.LogLevel).
		Str("metrics_addr", c.MetricsAddr).
		Dur("metrics_interval", c.MetricsInterval).
		Dur("queue_reconnect_max", c.QueueReconnectMax).
		Msg("configuration loaded")
}
