package scheduler

import (
	"log"
	"math"
	"time"

	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/job"
	"github.com/vasilii314/batcher/node"
)

// Durations are the wall-clock times of one action of each kind.
type Durations struct {
	Hack   time.Duration
	Grow   time.Duration
	Weaken time.Duration
}

func (d Durations) Longest() time.Duration {
	return max(d.Hack, d.Grow, d.Weaken)
}

func DurationsOf(n node.Node) Durations {
	return Durations{Hack: n.HackTime, Grow: n.GrowTime, Weaken: n.WeakenTime}
}

// StartDelays are the delays of the four actions of one HWGW batch.
type StartDelays struct {
	Hack    time.Duration
	Weaken1 time.Duration
	Grow    time.Duration
	Weaken2 time.Duration
}

// ComputeStartDelays aligns every action of a batch to finish at
// batchEnd shifted by its stagger:
//
//	delay = batchEnd - duration + stagger, floored at zero
//
// With the default staggers the finishing order is hack, weaken,
// grow, weaken.
func ComputeStartDelays(batchEnd time.Duration, d Durations, s config.Stagger) StartDelays {
	at := func(duration, stagger time.Duration) time.Duration {
		return max(0, batchEnd-duration+stagger)
	}
	return StartDelays{
		Hack:    at(d.Hack, s.Hack),
		Weaken1: at(d.Weaken, s.Weaken1),
		Grow:    at(d.Grow, s.Grow),
		Weaken2: at(d.Weaken, s.Weaken2),
	}
}

// BatchThreads is the thread count of each action in one batch.
type BatchThreads struct {
	Hack   int
	Grow   int
	Weaken int
}

// Total counts both weaken waves.
func (b BatchThreads) Total() int {
	return b.Hack + b.Grow + 2*b.Weaken
}

// MicroBatch fires many small end-aligned HWGW batches against a
// single target.
type MicroBatch struct {
	Batch    config.Batch
	Analyzer Analyzer
}

// NeedsWeaken reports whether security is above the tolerated
// buffer over its floor.
func (m *MicroBatch) NeedsWeaken(t node.Node) bool {
	return t.Security > t.MinSecurity*(1+m.Batch.SecBuffer)
}

// Threads sizes one batch: enough hack threads to take HackPercent
// of the money, enough grow threads to restore the ceiling, and
// enough weaken threads to cancel both.
func (m *MicroBatch) Threads(t node.Node) (BatchThreads, error) {
	hack := max(1, int(math.Ceil(m.Batch.HackPercent/math.Max(1e-12, t.HackFraction))))

	stolen := t.Money * math.Min(m.Batch.HackPercent, 0.999)
	postHack := math.Max(1, t.Money-stolen)
	multiplier := math.Max(1+1e-9, t.MaxMoney/postHack)
	g, err := m.Analyzer.GrowthThreads(t.Name, multiplier)
	if err != nil {
		return BatchThreads{}, err
	}
	grow := max(1, int(math.Ceil(g)))

	sec := m.Batch.Security
	increase := float64(hack)*sec.HackIncrease + float64(grow)*sec.GrowIncrease
	weaken := max(1, int(math.Ceil(increase/sec.WeakenDecrease)))
	return BatchThreads{Hack: hack, Grow: grow, Weaken: weaken}, nil
}

func (m *MicroBatch) Allocate(targets []node.Node, workers []Worker) (*Plan, error) {
	total := TotalCapacity(workers)
	plan := &Plan{
		Strategy:      config.MicroBatch,
		Workers:       workers,
		TotalCapacity: total,
	}
	if len(targets) == 0 {
		return plan, nil
	}
	t := targets[0]
	entry := &Entry{Target: t, Weight: 1, Want: float64(total)}
	plan.Targets = []node.Node{t}
	plan.Entries = []*Entry{entry}

	if m.NeedsWeaken(t) {
		plan.WeakenOnly = true
		m.weakenOnly(plan, entry)
		return plan, nil
	}

	bt, err := m.Threads(t)
	if err != nil {
		log.Printf("[scheduler.MicroBatch] [Allocate] Cannot size batches for %s: %v\n", t.Name, err)
		return plan, nil
	}
	perBatch := bt.Total()
	durations := DurationsOf(t)
	for i, w := range workers {
		batches := w.Threads / perBatch
		if m.Batch.MaxBatchesPerHost > 0 && batches > m.Batch.MaxBatchesPerHost {
			batches = m.Batch.MaxBatchesPerHost
		}
		if batches == 0 {
			continue
		}
		for b := 0; b < batches; b++ {
			base := time.Duration(i)*m.Batch.HostSpacing + time.Duration(b)*m.Batch.BatchSpacing
			end := base + durations.Longest() + m.Batch.Pad
			d := ComputeStartDelays(end, durations, m.Batch.Stagger)
			plan.Jobs = append(plan.Jobs,
				job.New(job.Hack, t.Name, w.Node.Name, bt.Hack, d.Hack),
				job.New(job.Weaken, t.Name, w.Node.Name, bt.Weaken, d.Weaken1),
				job.New(job.Grow, t.Name, w.Node.Name, bt.Grow, d.Grow),
				job.New(job.Weaken, t.Name, w.Node.Name, bt.Weaken, d.Weaken2),
			)
		}
		used := batches * perBatch
		entry.Used += used
		plan.Assignments = append(plan.Assignments, Assignment{
			Host:    w.Node.Name,
			Target:  t,
			Threads: used,
			Ratio:   Ratio{Weaken: 2 * bt.Weaken, Hack: bt.Hack, Grow: bt.Grow},
		})
	}
	return plan, nil
}

// weakenOnly spends every worker on lowering security. Each job
// carries at most the threads needed to reach the floor.
func (m *MicroBatch) weakenOnly(plan *Plan, entry *Entry) {
	t := entry.Target
	required := int(math.Ceil(t.SecurityDelta() / m.Batch.Security.WeakenDecrease))
	if required <= 0 {
		return
	}
	for i, w := range plan.Workers {
		usable := min(required, w.Threads)
		if usable <= 0 {
			continue
		}
		batches := w.Threads / usable
		for b := 0; b < batches; b++ {
			delay := time.Duration(i)*m.Batch.HostSpacing + time.Duration(b)*m.Batch.BatchSpacing
			plan.Jobs = append(plan.Jobs, job.New(job.Weaken, t.Name, w.Node.Name, usable, delay))
		}
		used := batches * usable
		entry.Used += used
		plan.Assignments = append(plan.Assignments, Assignment{
			Host:    w.Node.Name,
			Target:  t,
			Threads: used,
			Ratio:   Ratio{Weaken: 1},
		})
	}
}
