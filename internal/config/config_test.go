package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	loader, err := Load("")
	require.NoError(t, err)

	cfg := loader.Current()
	assert.Equal(t, Defaults().MaxDepth, cfg.MaxDepth)
	assert.Equal(t, Defaults().Threshold, cfg.Threshold)
	assert.Equal(t, Defaults().Model, cfg.Model)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxDepth: 3\nthreshold: 0.65\n"), 0o600))

	loader, err := Load(path)
	require.NoError(t, err)

	cfg := loader.Current()
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.Equal(t, 0.65, cfg.Threshold)
	assert.Equal(t, Defaults().Model, cfg.Model, "unset keys should keep their default")
}

func TestLoad_EnvVarOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxDepth: 3\n"), 0o600))

	t.Setenv("KYR_MAXDEPTH", "5")

	loader, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, loader.Current().MaxDepth, "env var should win over config.yaml")
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
}
