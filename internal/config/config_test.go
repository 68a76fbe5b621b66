package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8088
  readTimeout: 5s
upstream:
  pipelineURL: http://pipeline:8000
  governanceURL: http://governance:8003
  apiKey: k1
  timeout: 30s
cors:
  allowedOrigins: ["https://console.gov.example"]
journal:
  driver: mysql
  host: db
  port: 3306
  user: govai
  password: pw
  name: gateway
`)
	t.Setenv(EnvPipelineURL, "http://pipeline:8000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8088 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("server section not loaded: %+v", cfg.Server)
	}
	if cfg.Server.IdleTimeout != 60*time.Second {
		t.Fatalf("defaults should survive partial yaml, got %v", cfg.Server.IdleTimeout)
	}
	if cfg.Upstream.Timeout != 30*time.Second || cfg.Upstream.APIKey != "k1" {
		t.Fatalf("upstream section not loaded: %+v", cfg.Upstream)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 {
		t.Fatalf("cors origins not loaded: %v", cfg.CORS.AllowedOrigins)
	}
	want := "govai:pw@tcp(db:3306)/gateway?parseTime=true&charset=utf8mb4&loc=UTC"
	if got := cfg.MySQLDSN(); got != want {
		t.Fatalf("unexpected dsn %s", got)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv(EnvPipelineURL, " http://p.internal ")
	t.Setenv(EnvGovernanceURL, "http://g.internal")
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvPort, "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Upstream.PipelineURL != "http://p.internal" {
		t.Fatalf("expected trimmed pipeline url, got %q", cfg.Upstream.PipelineURL)
	}
	if cfg.Upstream.GovernanceURL != "http://g.internal" || cfg.Upstream.APIKey != "from-env" {
		t.Fatalf("env overrides not applied: %+v", cfg.Upstream)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Upstream.Timeout != 60*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Upstream.Timeout)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "upstream:\n  governanceURL: http://from-yaml\n")
	t.Setenv(EnvGovernanceURL, "http://from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Upstream.GovernanceURL != "http://from-env" {
		t.Fatalf("expected env to win, got %q", cfg.Upstream.GovernanceURL)
	}
}

func TestMissingUpstreamIsNotFatal(t *testing.T) {
	cfg := Default()
	if err := cfg.applyEnv(func(string) (string, bool) { return "", false }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing upstream urls must not fail validation: %v", err)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{"bad yaml", "server: [", nil, "parse"},
		{"bad port env", "", map[string]string{EnvPort: "eighty"}, "invalid PORT"},
		{"port out of range", "server:\n  port: 70000\n", nil, "invalid server port"},
		{"unknown driver", "journal:\n  driver: sqlite\n", nil, "unsupported journal driver"},
		{"zero timeout", "upstream:\n  timeout: 0s\n", nil, "timeout must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.Journal.Host = "pg"
	cfg.Journal.Port = 5432
	cfg.Journal.User = "u"
	cfg.Journal.Password = "p"
	cfg.Journal.Name = "n"
	if got := cfg.PostgresDSN(); got != "host=pg port=5432 user=u password=p dbname=n sslmode=disable" {
		t.Fatalf("unexpected dsn %s", got)
	}
	cfg.Journal.DSN = "postgres://explicit"
	if cfg.PostgresDSN() != "postgres://explicit" || cfg.MySQLDSN() != "postgres://explicit" {
		t.Fatal("explicit dsn should win")
	}
}
