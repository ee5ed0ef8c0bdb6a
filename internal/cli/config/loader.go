package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/infra/confloader"
	"github.com/yndnr/netverify-go/pkg/crypto/adaptive"
)

// apiKeyAAD binds a sealed API key to the setting it is stored under.
var apiKeyAAD = []byte("engine.api_key")

// Load reads the configuration from defaults, path (optional), the
// environment and finally overrides, which are flat dotted keys such as
// {"engine.address": "..."} taken from command-line flags. An empty path
// uses DefaultConfigPath.
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	l := confloader.NewLoader(
		confloader.WithDefaults(DefaultValues()),
		confloader.WithOptionalConfigFile(path),
	)
	cfg := &CLIConfig{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := l.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := l.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := cfg.openSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML with mode 0600, sealing the API key. An empty
// path uses DefaultConfigPath.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	out := *cfg
	if out.Engine.APIKey != "" && !adaptive.IsSealed(out.Engine.APIKey) {
		key, err := adaptive.LoadOrCreateKey(cfg.SecretKeyPath())
		if err != nil {
			return domain.ErrStorageError.WithDetails("secret key").WithCause(err)
		}
		sealed, err := adaptive.SealString(key, out.Engine.APIKey, apiKeyAAD)
		if err != nil {
			return domain.ErrInternal.WithDetails("seal engine.api_key").WithCause(err)
		}
		out.Engine.APIKey = sealed
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	// Write then rename so a failed write never truncates the old file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Set assigns one setting in the file at path and saves it. Environment
// overrides are not captured.
func Set(path, key string, value any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	if !slices.Contains(Keys(), key) {
		return nil, domain.ErrInvalidArgument.WithDetails("unknown config key: " + key)
	}

	l := confloader.NewLoader(
		confloader.WithDefaults(DefaultValues()),
		confloader.WithOptionalConfigFile(path),
		confloader.WithoutEnv(),
	)
	cfg := &CLIConfig{}
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := l.LoadMap(map[string]any{key: value}); err != nil {
		return nil, err
	}
	if err := l.Unmarshal(cfg); err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails(key).WithCause(err)
	}
	if key != "engine.api_key" {
		if err := cfg.openSecrets(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := Save(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	if path == "" {
		path = DefaultConfigPath()
	}
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func (c *CLIConfig) openSecrets() error {
	if !adaptive.IsSealed(c.Engine.APIKey) {
		return nil
	}
	key, err := adaptive.LoadOrCreateKey(c.SecretKeyPath())
	if err != nil {
		return domain.ErrStorageError.WithDetails("secret key").WithCause(err)
	}
	plain, err := adaptive.OpenString(key, c.Engine.APIKey, apiKeyAAD)
	if err != nil {
		return domain.ErrInvalidArgument.WithDetails("engine.api_key cannot be opened with " + c.SecretKeyPath()).WithCause(err)
	}
	c.Engine.APIKey = plain
	return nil
}
