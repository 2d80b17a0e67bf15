package world

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server is the static description of one simulated server.
type Server struct {
	Name      string   `yaml:"name"`
	Neighbors []string `yaml:"neighbors"`
	Admin     bool     `yaml:"admin"`
	Backdoor  bool     `yaml:"backdoor"`
	MaxRam    float64  `yaml:"max_ram"`
	MaxMoney  float64  `yaml:"max_money"`
	// Money at start, MaxMoney when zero.
	Money         float64 `yaml:"money"`
	MinSecurity   float64 `yaml:"min_security"`
	Security      float64 `yaml:"security"`
	RequiredSkill int     `yaml:"required_skill"`
	// GrowthRate is the money multiplier of a single grow thread.
	GrowthRate float64 `yaml:"growth_rate"`
	// HackTime at minimum security. Grow and weaken take
	// fixed multiples of it.
	HackTime time.Duration `yaml:"hack_time"`
}

// Topology describes a whole simulated game.
type Topology struct {
	Home          string  `yaml:"home"`
	Skill         int     `yaml:"skill"`
	CostPerThread float64 `yaml:"cost_per_thread"`
	// Scale speeds the world up: 10 makes every action ten
	// times shorter than configured.
	Scale   float64  `yaml:"scale"`
	Servers []Server `yaml:"servers"`
}

// Load reads a YAML topology file.
func Load(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, fmt.Errorf("reading topology file: %w", err)
	}
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Topology{}, fmt.Errorf("parsing topology file: %w", err)
	}
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return Topology{}, err
	}
	return t, nil
}

func (t *Topology) applyDefaults() {
	if t.Home == "" {
		t.Home = "home"
	}
	if t.Skill == 0 {
		t.Skill = 1
	}
	if t.CostPerThread == 0 {
		t.CostPerThread = 1.75
	}
	if t.Scale <= 0 {
		t.Scale = 1
	}
	for i := range t.Servers {
		s := &t.Servers[i]
		if s.Money == 0 {
			s.Money = s.MaxMoney
		}
		if s.Security < s.MinSecurity {
			s.Security = s.MinSecurity
		}
		if s.GrowthRate == 0 {
			s.GrowthRate = 1.01
		}
		if s.HackTime == 0 {
			s.HackTime = 10 * time.Second
		}
	}
}

// Validate checks the topology is a usable graph rooted at Home.
func (t Topology) Validate() error {
	names := make(map[string]struct{}, len(t.Servers))
	for _, s := range t.Servers {
		if s.Name == "" {
			return fmt.Errorf("server without a name")
		}
		if _, ok := names[s.Name]; ok {
			return fmt.Errorf("duplicate server %q", s.Name)
		}
		names[s.Name] = struct{}{}
		if s.GrowthRate <= 1 {
			return fmt.Errorf("server %q: growth_rate must be above 1", s.Name)
		}
	}
	if _, ok := names[t.Home]; !ok {
		return fmt.Errorf("home server %q is not defined", t.Home)
	}
	for _, s := range t.Servers {
		for _, n := range s.Neighbors {
			if _, ok := names[n]; !ok {
				return fmt.Errorf("server %q links to unknown server %q", s.Name, n)
			}
		}
	}
	return nil
}

// Default is a small early-game network.
func Default() Topology {
	t := Topology{
		Home:          "home",
		Skill:         50,
		CostPerThread: 1.75,
		Scale:         1,
		Servers: []Server{
			{Name: "home", Neighbors: []string{"n00dles", "foodnstuff", "sigma-cosmetics", "joesguns"}, Admin: true, MaxRam: 64},
			{Name: "n00dles", Neighbors: []string{"home", "zer0"}, Admin: true, MaxRam: 4, MaxMoney: 70000, MinSecurity: 1, Security: 1, RequiredSkill: 1, GrowthRate: 1.03, HackTime: 2 * time.Second},
			{Name: "foodnstuff", Neighbors: []string{"home", "nectar-net"}, Admin: true, MaxRam: 16, MaxMoney: 2000000, MinSecurity: 3, Security: 10, RequiredSkill: 1, GrowthRate: 1.01, HackTime: 8 * time.Second},
			{Name: "sigma-cosmetics", Neighbors: []string{"home", "CSEC"}, Admin: true, MaxRam: 16, MaxMoney: 2300000, MinSecurity: 3, Security: 10, RequiredSkill: 5, GrowthRate: 1.01, HackTime: 9 * time.Second},
			{Name: "joesguns", Neighbors: []string{"home", "max-hardware"}, Admin: true, MaxRam: 16, MaxMoney: 2500000, MinSecurity: 5, Security: 15, RequiredSkill: 10, GrowthRate: 1.01, HackTime: 12 * time.Second},
			{Name: "zer0", Neighbors: []string{"n00dles"}, Admin: true, MaxRam: 32, MaxMoney: 7500000, MinSecurity: 8, Security: 25, RequiredSkill: 75, GrowthRate: 1.008, HackTime: 20 * time.Second},
			{Name: "nectar-net", Neighbors: []string{"foodnstuff"}, Admin: true, MaxRam: 16, MaxMoney: 2750000, MinSecurity: 7, Security: 20, RequiredSkill: 20, GrowthRate: 1.01, HackTime: 14 * time.Second},
			{Name: "CSEC", Neighbors: []string{"sigma-cosmetics"}, MaxRam: 8, RequiredSkill: 54},
			{Name: "max-hardware", Neighbors: []string{"joesguns"}, MaxRam: 32, MaxMoney: 10000000, MinSecurity: 5, Security: 15, RequiredSkill: 80, GrowthRate: 1.008, HackTime: 25 * time.Second},
		},
	}
	t.applyDefaults()
	return t
}
