package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasilii314/batcher/config"
)

func newCycleCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("config", "c", "", "")
	cmd.Flags().Bool("debug", false, "")
	addCycleFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newCycleCmd(t))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batcher.yaml")
	data := `
strategy: microbatch
reserved_ram: 16
bridge:
  address: http://game:5555
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := loadConfig(newCycleCmd(t,
		"--config", path,
		"--reserve", "4",
		"--target", "n00dles,joesguns",
		"--multi", "2",
		"--debug",
	))
	require.NoError(t, err)
	assert.Equal(t, config.MicroBatch, cfg.Strategy)
	assert.Equal(t, 4.0, cfg.ReservedRam)
	assert.Equal(t, "http://game:5555", cfg.Bridge.Address)
	assert.Equal(t, []string{"n00dles", "joesguns"}, cfg.Targets)
	assert.True(t, cfg.Multi)
	assert.Equal(t, 2, cfg.MultiCount)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigRejectsBadStrategy(t *testing.T) {
	_, err := loadConfig(newCycleCmd(t, "--strategy", "greedy"))
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestFormatThreads(t *testing.T) {
	assert.Equal(t, "grow=3 hack=1 weaken=2", formatThreads(map[string]int{"weaken": 2, "hack": 1, "grow": 3}))
	assert.Equal(t, "", formatThreads(nil))
}
