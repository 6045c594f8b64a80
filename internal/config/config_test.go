package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("missing config should not fail: %v", err)
	}
	s := Default()
	if err := cfg.Apply(&s); err != nil {
		t.Fatalf("apply empty config: %v", err)
	}
	if !reflect.DeepEqual(s, Default()) {
		t.Fatalf("empty config changed defaults: %+v", s)
	}
}

func TestLoadConfigAppliesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9000"
read-timeout = "3s"
cors-origins = ["http://localhost:5173"]
rate-limit = 10
trusted-proxies = ["10.0.0.0/8"]

[database]
driver = "postgres"
dsn = "postgres://typist@localhost/typist?sslmode=disable"

[dictionary]
cache = "redis"
cache-ttl = "10m"

[auth]
jwt-secret = "s3cret"

[text]
adaptive-length = 120
retention = 3

[log]
level = "debug"
compress = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	s := Default()
	if err := cfg.Apply(&s); err != nil {
		t.Fatalf("apply config: %v", err)
	}

	if s.Server.Addr != ":9000" || s.Server.ReadTimeout != 3*time.Second || s.Server.RateLimit != 10 {
		t.Fatalf("unexpected server settings: %+v", s.Server)
	}
	if s.Server.WriteTimeout != Default().Server.WriteTimeout {
		t.Fatalf("unset value should keep default, got %v", s.Server.WriteTimeout)
	}
	if !reflect.DeepEqual(s.Server.CORSOrigins, []string{"http://localhost:5173"}) {
		t.Fatalf("unexpected cors origins: %v", s.Server.CORSOrigins)
	}
	if !reflect.DeepEqual(s.Server.TrustedProxies, []string{"10.0.0.0/8"}) {
		t.Fatalf("unexpected trusted proxies: %v", s.Server.TrustedProxies)
	}
	if Default().Server.TrustedProxies != nil {
		t.Fatalf("no proxy should be trusted by default")
	}
	if s.Database.Driver != "postgres" || !strings.HasPrefix(s.Database.DSN, "postgres://") {
		t.Fatalf("unexpected database settings: %+v", s.Database)
	}
	if s.Dictionary.Cache != CacheRedis || s.Dictionary.CacheTTL != 10*time.Minute {
		t.Fatalf("unexpected dictionary settings: %+v", s.Dictionary)
	}
	if s.Text.AdaptiveLength != 120 || s.Text.Retention != 3 || s.Text.PlainWords != 50 {
		t.Fatalf("unexpected text settings: %+v", s.Text)
	}
	if s.Log.Level != "debug" || s.Log.Compress {
		t.Fatalf("unexpected log settings: %+v", s.Log)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestApplyRejectsBadDuration(t *testing.T) {
	bad := "soon"
	cfg := FileConfig{Dictionary: DictionaryConfig{CacheTTL: &bad}}
	s := Default()
	err := cfg.Apply(&s)
	if err == nil || !strings.Contains(err.Error(), "dictionary.cache-ttl") {
		t.Fatalf("expected cache-ttl error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"missing secret", func(s *Settings) { s.Auth.JWTSecret = "" }},
		{"unknown cache", func(s *Settings) { s.Dictionary.Cache = "disk" }},
		{"zero length", func(s *Settings) { s.Text.AdaptiveLength = 0 }},
		{"zero words", func(s *Settings) { s.Text.PlainWords = 0 }},
		{"zero retention", func(s *Settings) { s.Text.Retention = 0 }},
		{"negative rate", func(s *Settings) { s.Server.RateLimit = -1 }},
		{"zero window", func(s *Settings) { s.Server.RateWindow = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Default()
			s.Auth.JWTSecret = "secret"
			tc.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "typist", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "typist", "typist.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	if got := DefaultDictionaryDir(); got != filepath.Join(dir, "data", "typist", "dictionaries") {
		t.Fatalf("unexpected dictionary dir: %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "state", "typist", "typist.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
}
