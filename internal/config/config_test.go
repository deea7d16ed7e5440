package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_FullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[defaults]
threads = 8
update = true
progress = false
regex = "Documents|Music"
force_log = true
`), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.Threads)
	assert.Equal(t, 8, *cfg.Defaults.Threads)
	require.NotNil(t, cfg.Defaults.Update)
	assert.True(t, *cfg.Defaults.Update)
	require.NotNil(t, cfg.Defaults.Progress)
	assert.False(t, *cfg.Defaults.Progress)
	require.NotNil(t, cfg.Defaults.Regex)
	assert.Equal(t, "Documents|Music", *cfg.Defaults.Regex)
	require.NotNil(t, cfg.Defaults.ForceLog)
	assert.True(t, *cfg.Defaults.ForceLog)
}

func TestLoadFrom_MissingFileIsZeroConfig(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.Threads)
	assert.Nil(t, cfg.Defaults.Update)
}

func TestLoadFrom_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[defaults]\nthreads = 4\n"), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Defaults.Threads)
	assert.Equal(t, 4, *cfg.Defaults.Threads)
	assert.Nil(t, cfg.Defaults.Regex)
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("defaults = ["), 0o644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}
