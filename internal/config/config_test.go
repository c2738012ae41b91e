package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysPartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wlpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registers: 10\nverbose: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Registers)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 10, cfg.InlineMaxInstructions, "unset fields must keep their reference default")
}

func TestLoadClampsNonPositiveFieldsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wlpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registers: -5\ninline_max_blocks: 0\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRegisterCount, cfg.Registers)
	assert.Equal(t, 5, cfg.InlineMaxBlocks)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wlpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("registers: [this is not a number\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
