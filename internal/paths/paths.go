// Package paths resolves the configuration and data directories dorepo uses.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "dorepo"

// CWD-relative directory name used when no data directory is configured.
const DefaultDataDirName = ".dorepo-db"

// DefaultDatabaseName is the SQLite file created inside the data directory.
const DefaultDatabaseName = "objects.db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DOREPO_CONFIG_DIR"
	EnvDataDir   = "DOREPO_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/dorepo (fallback ~/.config/dorepo)
// macOS:   ~/Library/Application Support/dorepo
// Windows: %APPDATA%/dorepo
func DefaultConfigDir() (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > DOREPO_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configValue > DOREPO_DATA_DIR env > $(CWD)/.dorepo-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// DefaultStorageURL returns the relational storage URL for a data directory.
func DefaultStorageURL(dataDir string) string {
	return "sqlite://" + filepath.Join(dataDir, DefaultDatabaseName)
}
