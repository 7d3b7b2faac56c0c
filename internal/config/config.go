// Package config loads dorepo settings from config.yaml in the configuration
// directory and applies environment overrides on top.
//
// Precedence for each repository setting is: DOREPO_* environment variable >
// config.yaml > built-in default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/dorepo/internal/paths"
	"github.com/mesh-intelligence/dorepo/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the config file inside the configuration directory.
	FileName = "config.yaml"
)

// Config keys.
const (
	KeyStorageURL = "storage_url"
	KeyCodec      = "codec"
	KeyOpTimeout  = "op_timeout"
	KeyDataDir    = "data_dir"
)

// Environment variables overriding config.yaml. They match the env tags on
// types.Config.
const (
	EnvStorageURL = "DOREPO_STORAGE_URL"
	EnvCodec      = "DOREPO_CODEC"
	EnvOpTimeout  = "DOREPO_OP_TIMEOUT"
)

// envKeys maps keys to the variable that overrides them. data_dir is absent:
// its file value beats DOREPO_DATA_DIR.
var envKeys = map[string]string{
	KeyStorageURL: EnvStorageURL,
	KeyCodec:      EnvCodec,
	KeyOpTimeout:  EnvOpTimeout,
}

// Keys lists the keys get/set accept, in display order.
var Keys = []string{KeyStorageURL, KeyCodec, KeyOpTimeout, KeyDataDir}

// ErrUnknownKey is returned by Set for a key not in Keys.
var ErrUnknownKey = errors.New("unknown config key")

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# dorepo configuration

# Storage location. sqlite:///abs/path.db selects the relational backend;
# a plain directory path selects the degraded file-per-object backend.
# Default: sqlite://<data_dir>/objects.db
# storage_url:

# Payload codec: json or yaml
codec: json

# Per-operation timeout
op_timeout: 5s

# Data directory (optional; overridable by --data-dir flag)
# data_dir:
`

// File is a loaded config.yaml.
type File struct {
	dir string
	v   *viper.Viper
}

// Load reads config.yaml from configDir, creating the directory and a
// default file on first run. A config.yaml that cannot be found is not an
// error.
func Load(configDir string) (*File, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyCodec, types.DefaultCodec)
	v.SetDefault(KeyOpTimeout, types.DefaultOpTimeout)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return &File{dir: configDir, v: v}, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, FileName)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// Path returns the config file path.
func (f *File) Path() string { return filepath.Join(f.dir, FileName) }

// DataDir returns the data_dir value from config.yaml, or "".
func (f *File) DataDir() string { return f.v.GetString(KeyDataDir) }

// Get returns the value of key in effect: its environment override when set,
// otherwise the config.yaml value.
func (f *File) Get(key string) (string, error) {
	if !knownKey(key) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if name, ok := envKeys[key]; ok {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return f.v.GetString(key), nil
}

// Set validates value for key, stores it and rewrites config.yaml.
func (f *File) Set(key, value string) error {
	if !knownKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	switch key {
	case KeyStorageURL:
		if _, err := types.ParseLocation(value); err != nil {
			return err
		}
	case KeyOpTimeout:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("op_timeout: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("%w: %q", types.ErrTimeoutInvalid, value)
		}
	}
	f.v.Set(key, value)
	if err := f.v.WriteConfigAs(f.Path()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Repository builds the repository Config: config.yaml values, then DOREPO_*
// environment overrides, then defaults. An unset storage URL falls back to
// the SQLite database inside dataDir.
func (f *File) Repository(dataDir string) (types.Config, error) {
	var cfg types.Config
	if err := f.v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StorageURL == "" {
		cfg.StorageURL = paths.DefaultStorageURL(dataDir)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

func knownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
