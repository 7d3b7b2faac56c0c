package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// clearEnv unsets every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvStorageURL, EnvCodec, EnvOpTimeout} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_WritesDefaultFile(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "cfg")

	f, err := Load(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "codec: json")

	codec, err := f.Get(KeyCodec)
	require.NoError(t, err)
	assert.Equal(t, "json", codec)
	assert.Empty(t, f.DataDir())
	url, err := f.Get(KeyStorageURL)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestLoad_KeepsExistingFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := "storage_url: /srv/objects\ncodec: yaml\nop_timeout: 2s\ndata_dir: /srv/data\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	f, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", f.DataDir())

	cfg, err := f.Repository("/ignored")
	require.NoError(t, err)
	assert.Equal(t, types.Config{StorageURL: "/srv/objects", Codec: "yaml", OpTimeout: 2 * time.Second}, cfg)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("codec: [unclosed\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestRepository_Defaults(t *testing.T) {
	clearEnv(t)
	f, err := Load(t.TempDir())
	require.NoError(t, err)

	cfg, err := f.Repository("/data")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///data/objects.db", cfg.StorageURL)
	assert.Equal(t, types.DefaultCodec, cfg.Codec)
	assert.Equal(t, types.DefaultOpTimeout, cfg.OpTimeout)
}

func TestRepository_EnvOverrides(t *testing.T) {
	clearEnv(t)
	f, err := Load(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, f.Set(KeyStorageURL, "/from/file"))

	t.Setenv(EnvStorageURL, "sqlite:///from/env.db")
	t.Setenv(EnvCodec, "yaml")
	t.Setenv(EnvOpTimeout, "250ms")

	cfg, err := f.Repository("/data")
	require.NoError(t, err)
	assert.Equal(t, "sqlite:///from/env.db", cfg.StorageURL)
	assert.Equal(t, "yaml", cfg.Codec)
	assert.Equal(t, 250*time.Millisecond, cfg.OpTimeout)

	for key, want := range map[string]string{
		KeyStorageURL: "sqlite:///from/env.db",
		KeyCodec:      "yaml",
		KeyOpTimeout:  "250ms",
	} {
		got, err := f.Get(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}
}

func TestRepository_InvalidEnv(t *testing.T) {
	clearEnv(t)
	f, err := Load(t.TempDir())
	require.NoError(t, err)

	t.Setenv(EnvStorageURL, "ftp://nowhere")
	_, err = f.Repository("/data")
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestSet(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	f, err := Load(dir)
	require.NoError(t, err)

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"storage url", KeyStorageURL, "sqlite:///tmp/x.db", nil},
		{"directory url", KeyStorageURL, "/tmp/objects", nil},
		{"unknown scheme", KeyStorageURL, "mysql://db", types.ErrBackendUnknown},
		{"empty url", KeyStorageURL, "", types.ErrStorageURLEmpty},
		{"timeout", KeyOpTimeout, "1s", nil},
		{"negative timeout", KeyOpTimeout, "-1s", types.ErrTimeoutInvalid},
		{"unknown key", "colour", "blue", ErrUnknownKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Set(tt.key, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("persisted across loads", func(t *testing.T) {
		reloaded, err := Load(dir)
		require.NoError(t, err)
		url, err := reloaded.Get(KeyStorageURL)
		require.NoError(t, err)
		assert.Equal(t, "/tmp/objects", url)
		got, err := reloaded.Get(KeyOpTimeout)
		require.NoError(t, err)
		assert.Equal(t, "1s", got)
	})

	t.Run("bad duration", func(t *testing.T) {
		assert.Error(t, f.Set(KeyOpTimeout, "soon"))
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := f.Get("colour")
		assert.ErrorIs(t, err, ErrUnknownKey)
	})
}
