package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Strategy string

const (
	// Proportional spreads every worker's threads across one or
	// more targets in proportion to their weight.
	Proportional Strategy = "proportional"
	// MicroBatch fires end-aligned HWGW batches against one target.
	MicroBatch Strategy = "microbatch"
)

type StoreType string

const (
	InMemoryStore   StoreType = "memory"
	PersistentStore StoreType = "persistent"
)

// Config holds everything one scheduler cycle needs.
type Config struct {
	Home     string   `yaml:"home"`
	Strategy Strategy `yaml:"strategy"`
	// ReservedRam is kept free on the home server (GB).
	ReservedRam float64 `yaml:"reserved_ram"`
	// Interval between cycles. When IntervalMax is larger the
	// sleep is drawn uniformly from [Interval, IntervalMax).
	Interval    time.Duration `yaml:"interval"`
	IntervalMax time.Duration `yaml:"interval_max"`
	// Targets forces the selection when any of them is eligible.
	Targets    []string `yaml:"targets"`
	Multi      bool     `yaml:"multi"`
	MultiCount int      `yaml:"multi_count"`
	// Chaos shuffles ranked targets before selection.
	Chaos           bool `yaml:"chaos"`
	KillStale       bool `yaml:"kill_stale"`
	RequireBackdoor bool `yaml:"require_backdoor"`
	ScoreByExtract  bool `yaml:"score_by_extraction"`
	// MaxOffset bounds the random start delay of proportional jobs.
	MaxOffset  time.Duration `yaml:"max_offset"`
	Seed       int64         `yaml:"seed"`
	Weights    Weights       `yaml:"weights"`
	MicroBatch Batch         `yaml:"microbatch"`
	Bridge     Bridge        `yaml:"bridge"`
	Store      Store         `yaml:"store"`
	Debug      bool          `yaml:"debug"`
}

type Weights struct {
	Money    float64 `yaml:"money"`
	Security float64 `yaml:"security"`
	GrowBias float64 `yaml:"grow_bias"`
	// HackScale is the hack share of a fully grown target.
	HackScale float64 `yaml:"hack_scale"`
}

type Batch struct {
	// HackPercent is the share of current money one batch steals.
	HackPercent float64 `yaml:"hack_percent"`
	// SecBuffer is the tolerated relative excess over minimum
	// security before a host falls back to weaken-only.
	SecBuffer         float64       `yaml:"sec_buffer"`
	BatchSpacing      time.Duration `yaml:"batch_spacing"`
	HostSpacing       time.Duration `yaml:"host_spacing"`
	Pad               time.Duration `yaml:"pad"`
	MaxBatchesPerHost int           `yaml:"max_batches_per_host"`
	Stagger           Stagger       `yaml:"stagger"`
	Security          Security      `yaml:"security"`
}

// Stagger offsets each action's finish time from the batch end.
type Stagger struct {
	Hack    time.Duration `yaml:"hack"`
	Weaken1 time.Duration `yaml:"weaken1"`
	Grow    time.Duration `yaml:"grow"`
	Weaken2 time.Duration `yaml:"weaken2"`
}

// Security describes how much one thread of each action moves
// a target's security.
type Security struct {
	HackIncrease   float64 `yaml:"hack_increase"`
	GrowIncrease   float64 `yaml:"grow_increase"`
	WeakenDecrease float64 `yaml:"weaken_decrease"`
}

type Bridge struct {
	Address    string        `yaml:"address"`
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Store struct {
	Type   StoreType `yaml:"type"`
	Path   string    `yaml:"path"`
	Bucket string    `yaml:"bucket"`
	// Keep bounds how many reports the manager API lists.
	Keep int `yaml:"keep"`
}

// Default returns the configuration the original loaders ran with.
func Default() *Config {
	return &Config{
		Home:        "home",
		Strategy:    Proportional,
		ReservedRam: 8,
		Interval:    10 * time.Second,
		KillStale:   true,
		MaxOffset:   500 * time.Millisecond,
		Weights: Weights{
			Money:     0.8,
			Security:  1.2,
			GrowBias:  50,
			HackScale: 5,
		},
		MicroBatch: Batch{
			HackPercent:  0.01,
			SecBuffer:    0.05,
			BatchSpacing: 200 * time.Millisecond,
			HostSpacing:  50 * time.Millisecond,
			Pad:          100 * time.Millisecond,
			Stagger: Stagger{
				Hack:    -15 * time.Millisecond,
				Weaken1: -10 * time.Millisecond,
				Grow:    0,
				Weaken2: 10 * time.Millisecond,
			},
			Security: Security{
				HackIncrease:   0.002,
				GrowIncrease:   0.004,
				WeakenDecrease: 0.05,
			},
		},
		Bridge: Bridge{
			Address:    "http://localhost:5555",
			Retries:    10,
			RetryDelay: 5 * time.Second,
			Timeout:    10 * time.Second,
		},
		Store: Store{
			Type:   InMemoryStore,
			Path:   "reports.db",
			Bucket: "reports",
			Keep:   50,
		},
	}
}

// Load reads a YAML config file from the given path over Default,
// so only the keys present in the file change anything.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults restores fields emptied in the file where an empty
// value has no meaning. Zero weights, reserve, buffers and staggers
// are kept as written.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Home == "" {
		c.Home = d.Home
	}
	if c.Strategy == "" {
		c.Strategy = d.Strategy
	}
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Bridge.Address == "" {
		c.Bridge.Address = d.Bridge.Address
	}
	if c.Bridge.Retries <= 0 {
		c.Bridge.Retries = d.Bridge.Retries
	}
	if c.Bridge.RetryDelay <= 0 {
		c.Bridge.RetryDelay = d.Bridge.RetryDelay
	}
	if c.Bridge.Timeout <= 0 {
		c.Bridge.Timeout = d.Bridge.Timeout
	}
	if c.Store.Type == "" {
		c.Store.Type = d.Store.Type
	}
	if c.Store.Path == "" {
		c.Store.Path = d.Store.Path
	}
	if c.Store.Bucket == "" {
		c.Store.Bucket = d.Store.Bucket
	}
	if c.Store.Keep <= 0 {
		c.Store.Keep = d.Store.Keep
	}
}

// Validate checks that all config values are usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Strategy {
	case Proportional, MicroBatch:
	default:
		errs = append(errs, fmt.Errorf("unknown strategy %q", c.Strategy))
	}
	switch c.Store.Type {
	case InMemoryStore, PersistentStore:
	default:
		errs = append(errs, fmt.Errorf("unknown store type %q", c.Store.Type))
	}
	if c.ReservedRam < 0 {
		errs = append(errs, fmt.Errorf("reserved_ram cannot be negative: %v", c.ReservedRam))
	}
	if c.MultiCount < 0 {
		errs = append(errs, fmt.Errorf("multi_count cannot be negative: %d", c.MultiCount))
	}
	if c.MaxOffset < 0 {
		errs = append(errs, fmt.Errorf("max_offset cannot be negative: %v", c.MaxOffset))
	}
	if c.Weights.Money < 0 || c.Weights.Security < 0 {
		errs = append(errs, errors.New("weights cannot be negative"))
	}
	if c.MicroBatch.HackPercent <= 0 || c.MicroBatch.HackPercent >= 1 {
		errs = append(errs, fmt.Errorf("microbatch.hack_percent must be in (0, 1), got %v", c.MicroBatch.HackPercent))
	}
	if c.MicroBatch.Security.WeakenDecrease <= 0 {
		errs = append(errs, errors.New("microbatch.security.weaken_decrease must be positive"))
	}
	if st := c.MicroBatch.Stagger; !(st.Hack < st.Weaken1 && st.Weaken1 < st.Grow && st.Grow < st.Weaken2) {
		errs = append(errs, fmt.Errorf("microbatch.stagger must finish hack < weaken1 < grow < weaken2, got %v < %v < %v < %v",
			st.Hack, st.Weaken1, st.Grow, st.Weaken2))
	}
	if c.Weights.GrowBias < 0 || c.Weights.HackScale < 0 {
		errs = append(errs, errors.New("weights.grow_bias and weights.hack_scale cannot be negative"))
	}
	if c.MicroBatch.SecBuffer < 0 {
		errs = append(errs, fmt.Errorf("microbatch.sec_buffer cannot be negative: %v", c.MicroBatch.SecBuffer))
	}
	if c.IntervalMax != 0 && c.IntervalMax < c.Interval {
		errs = append(errs, fmt.Errorf("interval_max %v is shorter than interval %v", c.IntervalMax, c.Interval))
	}
	return errors.Join(errs...)
}
