package config

import (
	"log/slog"
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is the full runtime configuration, read from the environment.
type Config struct {
	Server ServerConfig
	OTLP   OTLPConfig `envconfig:"OTEL"`
	Log    LogConfig
	CORS   CORSConfig
}

type ServerConfig struct {
	Host              string        `envconfig:"HOST" default:"0.0.0.0"`
	Port              string        `envconfig:"PORT" default:"8000"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s"`
	// DurationMSMetric enables the extra millisecond request duration histogram.
	DurationMSMetric bool `envconfig:"DURATION_MS_METRIC" default:"false"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

type OTLPConfig struct {
	Endpoint    string `envconfig:"EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"products-api"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	// Enabled switches OTLP export on. Prometheus metrics are served either way.
	Enabled bool `envconfig:"ENABLED" default:"false"`
}

type LogConfig struct {
	Level slog.Level `envconfig:"LEVEL" default:"INFO"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment")
	}
	return &cfg, nil
}
