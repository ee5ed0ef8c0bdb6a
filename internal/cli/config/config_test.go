package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/pkg/crypto/adaptive"
)

// isolate points HOME at a temp dir so defaults never touch the real
// ~/.netverify, and returns a config path inside it.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return filepath.Join(home, ".netverify", "cli.yaml")
}

func TestDefault(t *testing.T) {
	isolate(t)
	cfg := Default()

	if cfg.Engine.Address != DefaultAddress {
		t.Errorf("Engine.Address = %q, want %q", cfg.Engine.Address, DefaultAddress)
	}
	if cfg.Engine.Timeout != DefaultTimeout {
		t.Errorf("Engine.Timeout = %v, want %v", cfg.Engine.Timeout, DefaultTimeout)
	}
	if cfg.Output.Format != "table" {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, "table")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	want := filepath.Join(home, ".netverify", "cli.yaml")
	if got := DefaultConfigPath(); got != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestKeys_MatchDefaults(t *testing.T) {
	keys := Keys()
	if len(keys) != len(DefaultValues()) {
		t.Fatalf("len(Keys()) = %d, want %d", len(keys), len(DefaultValues()))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Errorf("Keys() not sorted at %d: %q >= %q", i, keys[i-1], keys[i])
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := isolate(t)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Address != DefaultAddress {
		t.Errorf("Engine.Address = %q, want %q", cfg.Engine.Address, DefaultAddress)
	}
	if cfg.Session.CacheSize != DefaultCacheSize {
		t.Errorf("Session.CacheSize = %d, want %d", cfg.Session.CacheSize, DefaultCacheSize)
	}
	if Exists(path) {
		t.Error("Load() created the config file")
	}
}

func TestLoad_Layering(t *testing.T) {
	path := isolate(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	content := `
engine:
  address: file:9996
  timeout: 30s
  rate_limit: 2
output:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NETVERIFY_OUTPUT_FORMAT", "yaml")
	t.Setenv("NETVERIFY_SESSION_NETWORK", "N1")

	cfg, err := Load(path, map[string]any{"session.network": "N2"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file address", cfg.Engine.Address, "file:9996"},
		{"file timeout", cfg.Engine.Timeout, 30 * time.Second},
		{"file rate limit", cfg.Engine.RateLimit, 2.0},
		{"env over file", cfg.Output.Format, "yaml"},
		{"flag over env", cfg.Session.Network, "N2"},
		{"default level", cfg.Log.Level, DefaultLogLevel},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	path := isolate(t)
	_, err := Load(path, map[string]any{"output.format": "xml"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Load() error = %v, want %v", err, domain.ErrInvalidArgument)
	}
}

func TestSave_SealsAPIKey(t *testing.T) {
	path := isolate(t)
	cfg := Default()
	cfg.Engine.APIKey = "nvak_plaintext"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config mode = %o, want 600", perm)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "nvak_plaintext") {
		t.Error("saved config contains the plaintext API key")
	}
	if !strings.Contains(string(raw), adaptive.SealedPrefix) {
		t.Errorf("saved config = %q, want a sealed api_key", raw)
	}
	if !strings.Contains(string(raw), "timeout: 5m0s") {
		t.Errorf("saved config = %q, want timeout as a duration string", raw)
	}
	if cfg.Engine.APIKey != "nvak_plaintext" {
		t.Error("Save() modified the caller's config")
	}

	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Engine.APIKey != "nvak_plaintext" {
		t.Errorf("Engine.APIKey = %q, want %q", loaded.Engine.APIKey, "nvak_plaintext")
	}
	if loaded.Engine.Timeout != DefaultTimeout {
		t.Errorf("Engine.Timeout = %v, want %v", loaded.Engine.Timeout, DefaultTimeout)
	}
}

func TestLoad_WrongSecretKey(t *testing.T) {
	path := isolate(t)
	cfg := Default()
	cfg.Engine.APIKey = "nvak_plaintext"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	other, err := adaptive.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.SecretKeyPath(), other, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Load() error = %v, want %v", err, domain.ErrInvalidArgument)
	}
}

func TestSet(t *testing.T) {
	path := isolate(t)
	t.Setenv("NETVERIFY_ENGINE_ADDRESS", "env:9996")

	cfg, err := Set(path, "output.format", "json")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want %q", cfg.Output.Format, "json")
	}

	if _, err := Set(path, "engine.api_key", "nvak_secret"); err != nil {
		t.Fatalf("Set(api_key) error = %v", err)
	}
	if _, err := Set(path, "engine.timeout", "45s"); err != nil {
		t.Fatalf("Set(timeout) error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "env:9996") {
		t.Error("Set() persisted an environment override")
	}

	t.Setenv("NETVERIFY_ENGINE_ADDRESS", "")
	loaded, err := Load(path, map[string]any{"engine.address": DefaultAddress})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Output.Format != "json" {
		t.Errorf("Output.Format = %q, want %q", loaded.Output.Format, "json")
	}
	if loaded.Engine.APIKey != "nvak_secret" {
		t.Errorf("Engine.APIKey = %q, want %q", loaded.Engine.APIKey, "nvak_secret")
	}
	if loaded.Engine.Timeout != 45*time.Second {
		t.Errorf("Engine.Timeout = %v, want 45s", loaded.Engine.Timeout)
	}
}

func TestSet_Errors(t *testing.T) {
	path := isolate(t)

	tests := []struct {
		key   string
		value any
	}{
		{"engine.unknown", "x"},
		{"output.format", "xml"},
		{"log.level", "trace"},
		{"session.cache_size", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := Set(path, tt.key, tt.value)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("Set(%q) error = %v, want %v", tt.key, err, domain.ErrInvalidArgument)
			}
		})
	}
	if Exists(path) {
		t.Error("failed Set() wrote the config file")
	}
}

func TestValues_CoversKeys(t *testing.T) {
	isolate(t)
	values := Default().Values()
	for _, key := range Keys() {
		if _, ok := values[key]; !ok {
			t.Errorf("Values() missing key %q", key)
		}
	}
	if len(values) != len(Keys()) {
		t.Errorf("len(Values()) = %d, want %d", len(values), len(Keys()))
	}
}
