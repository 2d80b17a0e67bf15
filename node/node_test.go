package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		name     string
		n        Node
		skill    int
		backdoor bool
		want     Role
	}{
		{
			name:  "rooted money server with ram",
			n:     Node{MaxMoney: 100, RequiredSkill: 5, Admin: true, MaxRam: 16},
			skill: 10,
			want:  Both,
		},
		{
			name:  "rooted money server without ram",
			n:     Node{MaxMoney: 100, RequiredSkill: 5, Admin: true},
			skill: 10,
			want:  Target,
		},
		{
			name:  "skill too low",
			n:     Node{MaxMoney: 100, RequiredSkill: 999, Admin: true, MaxRam: 8},
			skill: 10,
			want:  Worker,
		},
		{
			name:  "no admin",
			n:     Node{MaxMoney: 100, RequiredSkill: 1, MaxRam: 8},
			skill: 10,
			want:  Neither,
		},
		{
			name:     "backdoor required but missing",
			n:        Node{MaxMoney: 100, RequiredSkill: 1, Admin: true},
			skill:    10,
			backdoor: true,
			want:     Neither,
		},
		{
			name:     "backdoor required and installed",
			n:        Node{MaxMoney: 100, RequiredSkill: 1, Admin: true, Backdoor: true},
			skill:    10,
			backdoor: true,
			want:     Target,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.n, tc.skill, tc.backdoor))
		})
	}
}

func TestNodeDerived(t *testing.T) {
	n := Node{
		MaxRam: 8, UsedRam: 10,
		MaxMoney: 1000, Money: 250,
		Security: 3, MinSecurity: 5,
		HackTime: time.Second, GrowTime: 3 * time.Second, WeakenTime: 4 * time.Second,
	}
	assert.Equal(t, 0.0, n.FreeRam())
	assert.Equal(t, 0.25, n.ValueFraction())
	assert.Equal(t, 0.0, n.SecurityDelta())
	assert.Equal(t, 12*time.Second, n.CycleDuration())

	var empty Node
	assert.Equal(t, 0.0, empty.ValueFraction())
}
