package scheduler

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/job"
	"github.com/vasilii314/batcher/node"
)

// Scheduler turns the selected targets and the capacity of every
// worker into a plan of jobs.
type Scheduler interface {
	Allocate(targets []node.Node, workers []Worker) (*Plan, error)
}

// Analyzer answers growth questions the scheduler cannot derive
// from a snapshot.
type Analyzer interface {
	// GrowthThreads returns how many grow threads multiply the
	// money on target by multiplier.
	GrowthThreads(target string, multiplier float64) (float64, error)
}

// Snapshot is everything observed about the game at the start
// of a cycle.
type Snapshot struct {
	Home          string
	Skill         int
	CostPerThread float64
	Nodes         []node.Node
}

// Worker is a server able to run jobs together with the number
// of threads it can take this cycle.
type Worker struct {
	Node    node.Node
	Threads int
}

// Plan is the outcome of one cycle. It is discarded after dispatch.
type Plan struct {
	Strategy      config.Strategy
	Targets       []node.Node
	Entries       []*Entry
	Workers       []Worker
	TotalCapacity int
	Assignments   []Assignment
	Jobs          []job.Job
	// WeakenOnly is set when a micro-batch plan fell back to
	// lowering security instead of firing batches.
	WeakenOnly bool
}

// ThreadsByKind sums planned threads per action kind.
func (p *Plan) ThreadsByKind() map[job.Kind]int {
	res := make(map[job.Kind]int, 3)
	for _, j := range p.Jobs {
		res[j.Kind] += j.Threads
	}
	return res
}

// ThreadsByHost sums planned threads per worker host.
func (p *Plan) ThreadsByHost() map[string]int {
	res := make(map[string]int, len(p.Workers))
	for _, j := range p.Jobs {
		res[j.Host] += j.Threads
	}
	return res
}

// EstimatedIncome is a coarse money per second estimate: the money
// the planned hack threads take, scaled by hack chance, over the
// average action time of each target.
func (p *Plan) EstimatedIncome() float64 {
	hacks := make(map[string]int)
	for _, j := range p.Jobs {
		if j.Kind == job.Hack {
			hacks[j.Target] += j.Threads
		}
	}
	income := 0.0
	for _, t := range p.Targets {
		threads := hacks[t.Name]
		if threads == 0 {
			continue
		}
		avg := (t.CycleDuration() / 4).Seconds()
		if avg <= 0 {
			continue
		}
		perThread := t.HackFraction * t.MaxMoney
		income += perThread * float64(threads) * t.HackChance / avg
	}
	return income
}

// New returns the scheduler implementing cfg.Strategy.
func New(cfg *config.Config, analyzer Analyzer, rng *rand.Rand) (Scheduler, error) {
	if rng == nil {
		rng = newRand(cfg.Seed)
	}
	switch cfg.Strategy {
	case config.Proportional:
		return &Proportional{
			Weights:   cfg.Weights,
			MaxOffset: cfg.MaxOffset,
			rng:       rng,
		}, nil
	case config.MicroBatch:
		if analyzer == nil {
			return nil, fmt.Errorf("strategy %s needs a growth analyzer", cfg.Strategy)
		}
		return &MicroBatch{
			Batch:    cfg.MicroBatch,
			Analyzer: analyzer,
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}

// RunCycle is one pure scheduling pass over a snapshot: classify,
// rank, select and allocate. An empty selection yields a plan
// without jobs.
func RunCycle(cfg *config.Config, snap Snapshot, analyzer Analyzer, rng *rand.Rand) (*Plan, error) {
	if rng == nil {
		rng = newRand(cfg.Seed)
	}
	workers := Workers(snap, cfg.ReservedRam)
	candidates := Candidates(snap.Nodes, snap.Skill, cfg.RequireBackdoor)
	ranked := Rank(candidates, ScoreByExtraction(cfg))
	selected := Select(cfg, ranked, candidates, len(workers), rng)
	if len(selected) == 0 {
		return &Plan{
			Strategy:      cfg.Strategy,
			Workers:       workers,
			TotalCapacity: TotalCapacity(workers),
		}, nil
	}

	s, err := New(cfg, analyzer, rng)
	if err != nil {
		return nil, err
	}
	return s.Allocate(selected, workers)
}

// ScoreByExtraction reports whether targets are ranked by the money
// one hack thread takes. Micro-batch plans always rank that way.
func ScoreByExtraction(cfg *config.Config) bool {
	return cfg.ScoreByExtract || cfg.Strategy == config.MicroBatch
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
