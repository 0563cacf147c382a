package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Engine.Concurrency = 0 }},
		{"negative retries", func(c *Config) { c.Engine.MaxRetries = -1 }},
		{"bad fetcher type", func(c *Config) { c.Fetcher.Type = "carrier-pigeon" }},
		{"empty mongo uri", func(c *Config) { c.Mongo.URI = "" }},
		{"bad export format", func(c *Config) { c.Export.Enabled = true; c.Export.Format = "xml" }},
		{"no backend at all", func(c *Config) { c.Mongo.Enabled = false; c.Export.Enabled = false }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sesgocero.yaml")
	yaml := `
engine:
  concurrency: 3
  politeness_delay: 2s
mongo:
  database: newsdb
export:
  enabled: true
  format: csv
  path: out.csv
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.Concurrency != 3 {
		t.Errorf("concurrency = %d, want 3", cfg.Engine.Concurrency)
	}
	if cfg.Engine.PolitenessDelay != 2*time.Second {
		t.Errorf("politeness_delay = %v, want 2s", cfg.Engine.PolitenessDelay)
	}
	if cfg.Mongo.Database != "newsdb" {
		t.Errorf("mongo.database = %q", cfg.Mongo.Database)
	}
	// Values absent from the file keep their defaults.
	if cfg.Mongo.Collection != "articles" {
		t.Errorf("mongo.collection = %q, want default", cfg.Mongo.Collection)
	}
	if cfg.Export.Format != "csv" || !cfg.Export.Enabled {
		t.Errorf("export = %+v", cfg.Export)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db.internal:27017")
	t.Setenv("SESGOCERO_ENGINE_CONCURRENCY", "5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mongo.URI != "mongodb://db.internal:27017" {
		t.Errorf("mongo.uri = %q", cfg.Mongo.URI)
	}
	if cfg.Engine.Concurrency != 5 {
		t.Errorf("concurrency = %d, want 5", cfg.Engine.Concurrency)
	}
}

func TestValidateURL(t *testing.T) {
	if err := ValidateURL("https://www.elespectador.com/archivo/"); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	if err := ValidateURL("ftp://example.com"); err == nil {
		t.Error("expected scheme error")
	}
	if err := ValidateURL("https://"); err == nil {
		t.Error("expected host error")
	}
}
