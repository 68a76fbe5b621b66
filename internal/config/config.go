package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides. The upstream names match what the console
// deployment already exports.
const (
	EnvPipelineURL   = "GOVAI_GATEWAY_URL"
	EnvGovernanceURL = "GOVAI_GOV_URL"
	EnvAPIKey        = "GOVAI_API_KEY"
	EnvPort          = "PORT"
	EnvLogLevel      = "LOG_LEVEL"
	EnvElasticURL    = "ELASTICSEARCH_URL"
	EnvOTLPEndpoint  = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvJournalDriver = "JOURNAL_DRIVER"
	EnvJournalDSN    = "JOURNAL_DSN"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
		MaxBodyBytes int64         `yaml:"maxBodyBytes"`
	} `yaml:"server"`

	Upstream struct {
		PipelineURL   string        `yaml:"pipelineURL"`
		GovernanceURL string        `yaml:"governanceURL"`
		APIKey        string        `yaml:"apiKey"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"upstream"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	Log struct {
		Level            string `yaml:"level"`
		Format           string `yaml:"format"` // console | json | ecs
		ElasticsearchURL string `yaml:"elasticsearchURL"`
		Index            string `yaml:"index"`
	} `yaml:"log"`

	Telemetry struct {
		ServiceName  string  `yaml:"serviceName"`
		OTLPEndpoint string  `yaml:"otlpEndpoint"`
		Insecure     bool    `yaml:"insecure"`
		SampleRatio  float64 `yaml:"sampleRatio"`
	} `yaml:"telemetry"`

	// Journal is the optional access log. Empty driver disables it.
	Journal struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"journal"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// Default returns a config with every optional value filled in.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 3000
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 90 * time.Second
	cfg.Server.IdleTimeout = 60 * time.Second
	cfg.Server.MaxBodyBytes = 1 << 20
	cfg.Upstream.Timeout = 60 * time.Second
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	cfg.Log.Index = "govai-gateway"
	cfg.Telemetry.ServiceName = "govai-gateway"
	cfg.Telemetry.SampleRatio = 1
	cfg.Metrics.Enabled = true
	return &cfg
}

// Load baca file config.yaml, lalu .env, lalu environment.
// A missing file is not an error; the gateway can run from env alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// .env never overrides variables that are already set
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvPipelineURL, &c.Upstream.PipelineURL)
	str(EnvGovernanceURL, &c.Upstream.GovernanceURL)
	str(EnvAPIKey, &c.Upstream.APIKey)
	str(EnvLogLevel, &c.Log.Level)
	str(EnvElasticURL, &c.Log.ElasticsearchURL)
	str(EnvOTLPEndpoint, &c.Telemetry.OTLPEndpoint)
	str(EnvJournalDriver, &c.Journal.Driver)
	str(EnvJournalDSN, &c.Journal.DSN)

	if v, ok := lookup(EnvPort); ok && v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks values that would make the process unusable.
// Upstream base URLs are deliberately not required here: a missing one
// is reported per request on the routes that need it.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive")
	}
	switch c.Journal.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported journal driver %q", c.Journal.Driver)
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Journal.DSN != "" {
		return c.Journal.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Journal.User,
		c.Journal.Password,
		c.Journal.Host,
		c.Journal.Port,
		c.Journal.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	if c.Journal.DSN != "" {
		return c.Journal.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Journal.Host,
		c.Journal.Port,
		c.Journal.User,
		c.Journal.Password,
		c.Journal.Name,
	)
}
