package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "strategy: microbatch\n"))
	require.NoError(t, err)

	assert.Equal(t, MicroBatch, cfg.Strategy)
	assert.Equal(t, "home", cfg.Home)
	assert.Equal(t, 8.0, cfg.ReservedRam)
	assert.True(t, cfg.KillStale)
	assert.Equal(t, 0.8, cfg.Weights.Money)
	assert.Equal(t, 1.2, cfg.Weights.Security)
	assert.Equal(t, 50.0, cfg.Weights.GrowBias)
	assert.Equal(t, 5.0, cfg.Weights.HackScale)
	assert.Equal(t, -15*time.Millisecond, cfg.MicroBatch.Stagger.Hack)
	assert.Equal(t, 10*time.Millisecond, cfg.MicroBatch.Stagger.Weaken2)
	assert.Equal(t, InMemoryStore, cfg.Store.Type)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
home: base
reserved_ram: 32
interval: 1m
interval_max: 90s
targets: [n00dles, joesguns]
multi: true
multi_count: 3
kill_stale: false
weights:
  money: 1
  grow_bias: 10
microbatch:
  hack_percent: 0.05
  stagger:
    hack: -20ms
    weaken1: -5ms
    grow: 0s
    weaken2: 5ms
store:
  type: persistent
  path: /tmp/r.db
`))
	require.NoError(t, err)

	assert.Equal(t, "base", cfg.Home)
	assert.Equal(t, 32.0, cfg.ReservedRam)
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 90*time.Second, cfg.IntervalMax)
	assert.Equal(t, []string{"n00dles", "joesguns"}, cfg.Targets)
	assert.True(t, cfg.Multi)
	assert.Equal(t, 3, cfg.MultiCount)
	assert.False(t, cfg.KillStale)
	assert.Equal(t, 1.0, cfg.Weights.Money)
	assert.Equal(t, 1.2, cfg.Weights.Security)
	assert.Equal(t, 10.0, cfg.Weights.GrowBias)
	assert.Equal(t, 0.05, cfg.MicroBatch.HackPercent)
	assert.Equal(t, -20*time.Millisecond, cfg.MicroBatch.Stagger.Hack)
	assert.Equal(t, PersistentStore, cfg.Store.Type)
	assert.Equal(t, "/tmp/r.db", cfg.Store.Path)
}

func TestLoadInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"strategy":      "strategy: roundrobin\n",
		"store":         "store:\n  type: redis\n",
		"hack percent":  "microbatch:\n  hack_percent: 1.5\n",
		"interval":      "interval: 1m\ninterval_max: 30s\n",
		"yaml":          "targets: [\n",
		"hack stagger":  "microbatch:\n  stagger:\n    hack: 20ms\n",
		"equal stagger": "microbatch:\n  stagger:\n    grow: 10ms\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
reserved_ram: 0
max_offset: 0s
weights:
  money: 0
microbatch:
  sec_buffer: 0
`))
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.ReservedRam)
	assert.Equal(t, time.Duration(0), cfg.MaxOffset)
	assert.Equal(t, 0.0, cfg.Weights.Money)
	assert.Equal(t, 1.2, cfg.Weights.Security)
	assert.Equal(t, 0.0, cfg.MicroBatch.SecBuffer)
	assert.Equal(t, 0.01, cfg.MicroBatch.HackPercent)
}

func TestLoadPartialStaggerKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "microbatch:\n  stagger:\n    hack: -30ms\n"))
	require.NoError(t, err)

	assert.Equal(t, Stagger{
		Hack:    -30 * time.Millisecond,
		Weaken1: -10 * time.Millisecond,
		Grow:    0,
		Weaken2: 10 * time.Millisecond,
	}, cfg.MicroBatch.Stagger)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "batcher.yaml"))
	require.NoError(t, err)
	assert.Equal(t, PersistentStore, cfg.Store.Type)
	assert.Equal(t, 90*time.Second, cfg.IntervalMax)
}
