package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/ledgerscan/internal/config"
)

func TestConfigShow(t *testing.T) {
	stdout, _, err := executeCommand(t, "config", "show", "--log-level", "warn")
	require.NoError(t, err)

	assert.Contains(t, stdout, "log_level: warn")
	assert.Contains(t, stdout, "min_variance: 900")
	assert.Contains(t, stdout, "Environment prefix: LEDGERSCAN")
}

func TestConfigShow_FromFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("table:\n  tolerance: 0.5\n"), 0o600))

	stdout, _, err := executeCommand(t, "config", "show", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "tolerance: 0.5")
	assert.Contains(t, stdout, "Configuration file used: "+cfgFile)
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "ledgerscan.yaml")

	stdout, _, err := executeCommand(t, "config", "init", target)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration written to "+target)

	data, err := os.ReadFile(target) //nolint:gosec // G304: test output path
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, config.DefaultConfig().Quality, cfg.Quality)
	assert.Equal(t, config.DefaultConfig().Table, cfg.Table)

	_, _, err = executeCommand(t, "config", "init", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCommand(t, "config", "init", target, "--force")
	require.NoError(t, err)
}

func TestConfigInit_LoadsBack(t *testing.T) {
	target := filepath.Join(t.TempDir(), "ledgerscan.yaml")
	_, _, err := executeCommand(t, "config", "init", target)
	require.NoError(t, err)

	good, _ := writeCaptures(t)
	stdout, _, err := executeCommand(t, "check", good, "--config", target)
	require.NoError(t, err)
	assert.Contains(t, stdout, "accepted")
}
