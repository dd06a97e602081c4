package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func baseConfig() *Config {
	return &Config{
		APIKey:          "test-key",
		StartPaths:      []string{"."},
		DigestAlgorithm: "sha256",
		ContentReadMode: "stream",
		Threshold:       0.10,
		FreeQuota:       4,
		QueryInterval:   15 * time.Second,
		LogLevel:        "info",
	}
}

func TestParseCommaSeparated(t *testing.T) {
	res := parseCommaSeparated("a,b , c")
	if len(res) != 3 || res[1] != "b" {
		t.Fatalf("unexpected result: %v", res)
	}
	if res := parseCommaSeparated(""); len(res) != 0 {
		t.Fatalf("expected empty slice")
	}
}

func TestParseHeaders(t *testing.T) {
	res := parseHeaders("Authorization=Bearer x, X-Env = prod ,,broken")
	if res["Authorization"] != "Bearer x" || res["X-Env"] != "prod" {
		t.Fatalf("unexpected headers: %v", res)
	}
	if _, ok := res["broken"]; ok {
		t.Fatal("entry without '=' should be skipped")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	content := `{"api_key":"abc","start_paths":["/srv/uploads"],"malicious_threshold":0.25,"query_interval":30000000000}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := &Config{}
	if err := cfg.loadFromFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "abc" || cfg.StartPaths[0] != "/srv/uploads" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Threshold != 0.25 {
		t.Fatalf("unexpected threshold: %v", cfg.Threshold)
	}
	if cfg.QueryInterval != 30*time.Second {
		t.Fatalf("unexpected interval: %v", cfg.QueryInterval)
	}
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := &Config{}
	if err := cfg.loadFromFile(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
	if err := (&Config{}).loadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := baseConfig()
	if err := cfg.validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	cfg = baseConfig()
	cfg.APIKey = " "
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for missing api key")
	}

	cfg = baseConfig()
	cfg.DigestAlgorithm = "crc32"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for unsupported digest")
	}

	cfg = baseConfig()
	cfg.Threshold = 0
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for zero threshold")
	}
	cfg.Threshold = 1.5
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for threshold above 1")
	}

	cfg = baseConfig()
	cfg.QueryInterval = 0
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for zero query interval")
	}

	cfg = baseConfig()
	cfg.ContentReadMode = "direct"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for bad read mode")
	}

	cfg = baseConfig()
	cfg.LogLevel = "verbose"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for bad log level")
	}

	cfg = baseConfig()
	cfg.OtelEndpoint = "collector:4318"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for otel endpoint without scheme")
	}
}
