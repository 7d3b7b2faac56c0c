package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty storage URL returns ErrStorageURLEmpty",
			config:  Config{StorageURL: "  "},
			wantErr: ErrStorageURLEmpty,
		},
		{
			name:    "unknown scheme returns ErrBackendUnknown",
			config:  Config{StorageURL: "mysql://user@host/db"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "negative timeout rejected",
			config:  Config{StorageURL: "sqlite:///tmp/x.db", OpTimeout: -time.Second},
			wantErr: ErrTimeoutInvalid,
		},
		{
			name:   "valid sqlite config",
			config: Config{StorageURL: "sqlite:///tmp/x.db"},
		},
		{
			name:   "plain directory is valid",
			config: Config{StorageURL: "/tmp/objects"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{StorageURL: "sqlite://x.db"}.WithDefaults()
	assert.Equal(t, DefaultCodec, cfg.Codec)
	assert.Equal(t, DefaultOpTimeout, cfg.OpTimeout)

	custom := Config{StorageURL: "x", Codec: "yaml", OpTimeout: time.Minute}.WithDefaults()
	assert.Equal(t, "yaml", custom.Codec)
	assert.Equal(t, time.Minute, custom.OpTimeout)
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw      string
		wantKind BackendKind
		wantPath string
	}{
		{"sqlite:///var/lib/dorepo/objects.db", BackendRelational, "/var/lib/dorepo/objects.db"},
		{"sqlite://objects.db", BackendRelational, "objects.db"},
		{"SQLITE://objects.db", BackendRelational, "objects.db"},
		{"/var/lib/dorepo/objects", BackendFile, "/var/lib/dorepo/objects"},
		{"./objects/", BackendFile, "objects"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			loc, err := ParseLocation(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, loc.Kind)
			assert.Equal(t, tt.wantPath, loc.Path)
			assert.Equal(t, tt.raw, loc.URL)
		})
	}

	_, err := ParseLocation("sqlite://")
	assert.ErrorIs(t, err, ErrStorageURLEmpty)
	_, err = ParseLocation("postgres://db")
	assert.ErrorIs(t, err, ErrBackendUnknown)
}
