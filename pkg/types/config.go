package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Defaults applied by Config.WithDefaults.
const (
	DefaultCodec     = "json"
	DefaultOpTimeout = 5 * time.Second
)

// Config selects the backing store and its parameters. It is passed
// explicitly to repository.Open; there is no process-wide storage URL.
type Config struct {
	StorageURL string        `json:"storage_url" yaml:"storage_url" mapstructure:"storage_url" env:"DOREPO_STORAGE_URL"`
	Codec      string        `json:"codec" yaml:"codec" mapstructure:"codec" env:"DOREPO_CODEC"`
	OpTimeout  time.Duration `json:"op_timeout" yaml:"op_timeout" mapstructure:"op_timeout" env:"DOREPO_OP_TIMEOUT"`
}

// Config validation errors.
var (
	ErrStorageURLEmpty = errors.New("storage URL must not be empty")
	ErrBackendUnknown  = errors.New("unknown storage backend")
	ErrTimeoutInvalid  = errors.New("operation timeout must not be negative")
)

// WithDefaults returns a copy of c with empty fields filled in.
func (c Config) WithDefaults() Config {
	if c.Codec == "" {
		c.Codec = DefaultCodec
	}
	if c.OpTimeout == 0 {
		c.OpTimeout = DefaultOpTimeout
	}
	return c
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if strings.TrimSpace(c.StorageURL) == "" {
		return ErrStorageURLEmpty
	}
	if c.OpTimeout < 0 {
		return ErrTimeoutInvalid
	}
	_, err := ParseLocation(c.StorageURL)
	return err
}

// BackendKind tags the storage mode selected by a storage URL.
type BackendKind int

const (
	// BackendRelational stores objects in SQL tables.
	BackendRelational BackendKind = iota + 1
	// BackendFile stores one file per object in a directory. Legacy,
	// degraded mode: no transactions, process-local locking only.
	BackendFile
)

func (k BackendKind) String() string {
	switch k {
	case BackendRelational:
		return "relational"
	case BackendFile:
		return "file"
	default:
		return "unknown"
	}
}

// SchemeSQLite is the only relational scheme recognised.
const SchemeSQLite = "sqlite"

// Location is a parsed storage URL.
type Location struct {
	Kind BackendKind
	Path string // database file or object directory
	URL  string // original string
}

// ParseLocation resolves a storage URL once into a Location.
//
//	sqlite:///abs/path.db   relational, absolute path
//	sqlite://rel/path.db    relational, relative path
//	/some/dir, ./dir        file-per-object directory
//
// Any other "scheme://" form returns ErrBackendUnknown.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, ErrStorageURLEmpty
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Location{Kind: BackendFile, Path: filepath.Clean(raw), URL: raw}, nil
	}
	if !strings.EqualFold(scheme, SchemeSQLite) {
		return Location{}, fmt.Errorf("%w: %q", ErrBackendUnknown, scheme)
	}
	if rest == "" || rest == "/" {
		return Location{}, fmt.Errorf("%w: missing database path in %q", ErrStorageURLEmpty, raw)
	}
	// sqlite:///abs keeps its leading slash; sqlite://rel is relative.
	return Location{Kind: BackendRelational, Path: rest, URL: raw}, nil
}
