package node

import (
	"time"
)

// Node is a snapshot of a server in the game network.
// It carries both the attributes needed to use the server
// as a worker (RAM) and the ones needed to use it as a
// target (money and security).
type Node struct {
	Name     string `json:"name"`
	Home     bool   `json:"home"`
	Admin    bool   `json:"admin"`
	Backdoor bool   `json:"backdoor"`
	// RAM in GB
	MaxRam  float64 `json:"maxRam"`
	UsedRam float64 `json:"usedRam"`
	// Money ceiling and money currently available
	MaxMoney float64 `json:"maxMoney"`
	Money    float64 `json:"money"`
	// Security never drops below MinSecurity
	Security      float64 `json:"security"`
	MinSecurity   float64 `json:"minSecurity"`
	RequiredSkill int     `json:"requiredSkill"`
	// HackChance is the probability a hack succeeds at the
	// current security. HackFraction is the fraction of the
	// available money one hack thread removes.
	HackChance   float64       `json:"hackChance"`
	HackFraction float64       `json:"hackFraction"`
	HackTime     time.Duration `json:"hackTime"`
	GrowTime     time.Duration `json:"growTime"`
	WeakenTime   time.Duration `json:"weakenTime"`
}

// FreeRam returns unused RAM, never negative.
func (n Node) FreeRam() float64 {
	free := n.MaxRam - n.UsedRam
	if free < 0 {
		return 0
	}
	return free
}

// ValueFraction returns Money/MaxMoney, or 0 for servers
// without money.
func (n Node) ValueFraction() float64 {
	if n.MaxMoney <= 0 {
		return 0
	}
	return n.Money / n.MaxMoney
}

// SecurityDelta returns how far security sits above its floor.
func (n Node) SecurityDelta() float64 {
	d := n.Security - n.MinSecurity
	if d < 0 {
		return 0
	}
	return d
}

// CycleDuration estimates one full extraction cycle:
// one hack, one grow and two weakens.
func (n Node) CycleDuration() time.Duration {
	return n.HackTime + n.GrowTime + 2*n.WeakenTime
}
