package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		Pixabay: PixabayConfig{APIKey: "test-key"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP.Port = %d", cfg.HTTP.Port)
	}
	if cfg.Pixabay.BaseURL != "https://pixabay.com/api/" {
		t.Errorf("Pixabay.BaseURL = %q", cfg.Pixabay.BaseURL)
	}
	if cfg.Pixabay.PageSize != 15 {
		t.Errorf("Pixabay.PageSize = %d", cfg.Pixabay.PageSize)
	}
	if cfg.Pixabay.DefaultReset() != 60*time.Second {
		t.Errorf("DefaultReset() = %s", cfg.Pixabay.DefaultReset())
	}
	if cfg.Pixabay.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d", cfg.Pixabay.MaxAttempts)
	}
	if cfg.Pixabay.BaseBackoff() != 500*time.Millisecond || cfg.Pixabay.MaxBackoff() != 8*time.Second {
		t.Errorf("backoff = %s..%s", cfg.Pixabay.BaseBackoff(), cfg.Pixabay.MaxBackoff())
	}
	if cfg.Session.Driver != DriverMemory {
		t.Errorf("Session.Driver = %q", cfg.Session.Driver)
	}
	// 4 attempts of 10s plus 3 waits of 60s reset and 8s jitter, plus margin.
	if cfg.HTTP.WriteTimeoutSec != 254 {
		t.Errorf("HTTP.WriteTimeoutSec = %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Session.TTL() != time.Hour {
		t.Errorf("Session.TTL() = %s", cfg.Session.TTL())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Pixabay.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if err.Error() != "pixabay.api_key is required" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_PageSizeRange(t *testing.T) {
	for _, size := range []int{1, 2, 201} {
		cfg := validConfig()
		cfg.Pixabay.PageSize = size
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for page_size %d", size)
		}
	}
}

func TestValidate_MaxAttempts(t *testing.T) {
	cfg := validConfig()
	cfg.Pixabay.MaxAttempts = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative max_attempts")
	}
}

func TestValidate_BackoffOrder(t *testing.T) {
	cfg := validConfig()
	cfg.Pixabay.BaseBackoffMs = 5000
	cfg.Pixabay.MaxBackoffMs = 1000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max backoff < base backoff")
	}
}

func TestValidate_WriteTimeoutCoversRetries(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Pixabay.WorstCaseFetch(); got != 244*time.Second {
		t.Errorf("WorstCaseFetch() = %s, want 4m4s", got)
	}

	cfg.HTTP.WriteTimeoutSec = 180
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when write timeout is shorter than a rate limited fetch")
	}

	cfg.Pixabay.MaxAttempts = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("single attempt fits in 180s: %v", err)
	}
}

func TestValidate_SessionDrivers(t *testing.T) {
	tests := []struct {
		driver  string
		addrs   []string
		wantErr bool
	}{
		{DriverMemory, nil, false},
		{DriverValkey, []string{"localhost:6379"}, false},
		{DriverRedis, []string{"localhost:6379"}, false},
		{DriverValkey, nil, true},
		{DriverRedis, nil, true},
		{"sqlite", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Session.Driver = tc.driver
			cfg.Session.Addrs = tc.addrs
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PIXABAY_API_KEY", "from-env")
	t.Setenv("PIXSEARCH_PORT", "")

	cfg, err := Parse([]byte(`
http:
  port: ${PIXSEARCH_PORT:-9090}
pixabay:
  api_key: ${PIXABAY_API_KEY}
  max_attempts: 2
session:
  driver: valkey
  addrs: ["${VALKEY_ADDR:-localhost:6379}"]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pixabay.APIKey != "from-env" {
		t.Errorf("APIKey = %q", cfg.Pixabay.APIKey)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("Port = %d", cfg.HTTP.Port)
	}
	if cfg.Pixabay.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d", cfg.Pixabay.MaxAttempts)
	}
	if len(cfg.Session.Addrs) != 1 || cfg.Session.Addrs[0] != "localhost:6379" {
		t.Errorf("Addrs = %v", cfg.Session.Addrs)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("pixabay:\n  api_key: k\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pixabay.APIKey != "k" {
		t.Errorf("APIKey = %q", cfg.Pixabay.APIKey)
	}

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_ExplicitPathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("pixabay:\n  api_key: override\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Setenv("PIXSEARCH_CONFIG", path)

	cfg, err := Load("whatever")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pixabay.APIKey != "override" {
		t.Errorf("APIKey = %q", cfg.Pixabay.APIKey)
	}
}
