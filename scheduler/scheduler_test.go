package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/job"
	"github.com/vasilii314/batcher/node"
)

func TestRunCycleWithoutTargetsIdles(t *testing.T) {
	snap := Snapshot{
		Home:          "home",
		Skill:         1,
		CostPerThread: 1.75,
		Nodes: []node.Node{
			{Name: "home", Admin: true, MaxRam: 32},
			target("hard", 1000, 1000, 1, 1),
		},
	}
	snap.Nodes[1].RequiredSkill = 50

	plan, err := RunCycle(config.Default(), snap, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, plan.Targets)
	assert.Empty(t, plan.Jobs)
	assert.Equal(t, 13, plan.TotalCapacity)
}

func TestRunCycleMicroBatch(t *testing.T) {
	cfg := config.Default()
	cfg.Strategy = config.MicroBatch
	cfg.MicroBatch.HackPercent = 0.25
	snap := Snapshot{
		Home:          "home",
		Skill:         10,
		CostPerThread: 1,
		Nodes:         []node.Node{{Name: "home", Admin: true, MaxRam: 36}, microTarget()},
	}

	plan, err := RunCycle(cfg, snap, &fixedGrowth{threads: 7.2}, nil)

	require.NoError(t, err)
	assert.Equal(t, config.MicroBatch, plan.Strategy)
	assert.Len(t, plan.Jobs, 8)
	assert.Equal(t, 8, plan.ThreadsByKind()[job.Hack])
}

func TestNewRejectsMicroBatchWithoutAnalyzer(t *testing.T) {
	cfg := config.Default()
	cfg.Strategy = config.MicroBatch
	_, err := New(cfg, nil, nil)
	assert.Error(t, err)

	cfg.Strategy = "roundrobin"
	_, err = New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestEstimatedIncome(t *testing.T) {
	tgt := target("a", 1000, 1000, 1, 1)
	plan := &Plan{
		Targets: []node.Node{tgt},
		Jobs: []job.Job{
			job.New(job.Hack, "a", "home", 10, 0),
			job.New(job.Grow, "a", "home", 10, 0),
		},
	}
	// 0.01 * 1000 * 10 threads * 0.5 chance over a 3s average action
	assert.InDelta(t, 50.0/3.0, plan.EstimatedIncome(), 1e-9)
	assert.Equal(t, 0.0, (&Plan{Targets: []node.Node{tgt}}).EstimatedIncome())
}

func TestRunCycleMicroBatchRanksByExtraction(t *testing.T) {
	rich := target("rich", 2000, 2000, 1, 1)
	rich.HackFraction = 0.001
	lean := target("lean", 1000, 1000, 1, 1)
	snap := Snapshot{
		Home:          "home",
		Skill:         10,
		CostPerThread: 1,
		Nodes:         []node.Node{{Name: "home", Admin: true, MaxRam: 40}, rich, lean},
	}

	cfg := config.Default()
	plan, err := RunCycle(cfg, snap, nil, nil)
	require.NoError(t, err)
	require.Len(t, plan.Targets, 1)
	assert.Equal(t, "rich", plan.Targets[0].Name)

	cfg.Strategy = config.MicroBatch
	plan, err = RunCycle(cfg, snap, &fixedGrowth{threads: 1}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Targets, 1)
	assert.Equal(t, "lean", plan.Targets[0].Name)
	assert.True(t, ScoreByExtraction(cfg))
}
