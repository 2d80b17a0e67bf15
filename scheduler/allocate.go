package scheduler

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/job"
	"github.com/vasilii314/batcher/node"
)

// Capacity is the number of whole threads n can run. The home
// server keeps reserve GB free.
func Capacity(n node.Node, costPerThread, reserve float64) int {
	if costPerThread <= 0 {
		return 0
	}
	usable := n.FreeRam()
	if n.Home {
		usable = math.Max(0, usable-reserve)
	}
	return int(math.Floor(usable / costPerThread))
}

// Workers returns the servers able to run jobs, largest capacity
// first. Ties are broken by name so plans are reproducible.
func Workers(snap Snapshot, reserve float64) []Worker {
	var workers []Worker
	for _, n := range snap.Nodes {
		if n.Name == snap.Home {
			n.Home = true
		}
		if !node.Classify(n, snap.Skill, false).IsWorker() {
			continue
		}
		workers = append(workers, Worker{
			Node:    n,
			Threads: Capacity(n, snap.CostPerThread, reserve),
		})
	}
	sort.SliceStable(workers, func(i, j int) bool {
		if workers[i].Threads != workers[j].Threads {
			return workers[i].Threads > workers[j].Threads
		}
		return workers[i].Node.Name < workers[j].Node.Name
	})
	return workers
}

func TotalCapacity(workers []Worker) int {
	total := 0
	for _, w := range workers {
		total += w.Threads
	}
	return total
}

// Entry tracks how many threads a target should get this cycle
// and how many it got so far.
type Entry struct {
	Target node.Node
	Weight float64
	Want   float64
	Used   int
}

func (e *Entry) deficit() float64 {
	return e.Want - float64(e.Used)
}

// BuildPlan splits total threads across targets in proportion to
// their weight. When no target has weight nothing is wanted.
func BuildPlan(targets []node.Node, total int, moneyWeight, securityWeight float64) []*Entry {
	entries := make([]*Entry, len(targets))
	totalWeight := 0.0
	for i, t := range targets {
		w := Weight(t, moneyWeight, securityWeight)
		entries[i] = &Entry{Target: t, Weight: w}
		totalWeight += w
	}
	if totalWeight <= 0 {
		return entries
	}
	for _, e := range entries {
		e.Want = float64(total) * e.Weight / totalWeight
	}
	return entries
}

// Assignment gives a number of threads on one host to one target.
type Assignment struct {
	Host    string
	Target  node.Node
	Threads int
	Ratio   Ratio
}

// Assign hands out worker threads greedily: each worker in turn
// feeds the entry with the largest remaining deficit until the
// worker is full or no entry wants more. Entries' Used counters
// are updated in place.
func Assign(workers []Worker, entries []*Entry) []Assignment {
	var assignments []Assignment
	for _, w := range workers {
		available := w.Threads
		for available > 0 {
			e := nextEntry(entries)
			if e == nil {
				break
			}
			threads := int(math.Ceil(e.deficit()))
			if threads > available {
				threads = available
			}
			if threads <= 0 {
				break
			}
			e.Used += threads
			available -= threads
			assignments = append(assignments, Assignment{
				Host:    w.Node.Name,
				Target:  e.Target,
				Threads: threads,
			})
		}
	}
	return assignments
}

// nextEntry returns the entry with the largest positive deficit,
// or nil when every entry is satisfied.
func nextEntry(entries []*Entry) *Entry {
	var best *Entry
	for _, e := range entries {
		if best == nil || e.deficit() > best.deficit() {
			best = e
		}
	}
	if best == nil || best.deficit() <= 0 {
		return nil
	}
	return best
}

// Ratio is the relative weight of weaken, hack and grow threads
// in one assignment.
type Ratio struct {
	Weaken int
	Hack   int
	Grow   int
}

// BatchRatio derives the action ratio from a target's live state.
// Every component is at least one.
func BatchRatio(n node.Node, w config.Weights) Ratio {
	vf := n.ValueFraction()
	hackFactor := 0.0
	if vf > 0.7 {
		hackFactor = math.Min(1, (vf-0.7)/0.3)
	}
	return Ratio{
		Weaken: max(1, int(math.Ceil(n.SecurityDelta()*3*w.Security))),
		Hack:   max(1, int(math.Ceil(hackFactor*w.HackScale*w.Money))),
		Grow:   max(1, int(math.Ceil((1-vf)*w.GrowBias*w.Money))),
	}
}

// Split apportions threads across the three actions following the
// ratio (largest remainder). The parts sum to threads, and with at
// least three threads every action gets one.
func (r Ratio) Split(threads int) Ratio {
	if threads <= 0 {
		return Ratio{}
	}
	parts := [3]int{max(r.Weaken, 0), max(r.Hack, 0), max(r.Grow, 0)}
	total := parts[0] + parts[1] + parts[2]
	if total == 0 {
		parts = [3]int{1, 1, 1}
		total = 3
	}

	var out, rem [3]int
	given := 0
	for i, p := range parts {
		out[i] = threads * p / total
		rem[i] = threads * p % total
		given += out[i]
	}
	for ; given < threads; given++ {
		best := 0
		for i := 1; i < 3; i++ {
			if rem[i] > rem[best] {
				best = i
			}
		}
		out[best]++
		rem[best] = -1
	}

	if threads >= 3 {
		for i := range out {
			if out[i] > 0 {
				continue
			}
			largest := 0
			for k := 1; k < 3; k++ {
				if out[k] > out[largest] {
					largest = k
				}
			}
			out[largest]--
			out[i]++
		}
	}
	return Ratio{Weaken: out[0], Hack: out[1], Grow: out[2]}
}

// Proportional spreads capacity over one or more targets by weight
// and mixes weaken, hack and grow on every assignment.
type Proportional struct {
	Weights   config.Weights
	MaxOffset time.Duration
	rng       *rand.Rand
}

func (p *Proportional) Allocate(targets []node.Node, workers []Worker) (*Plan, error) {
	total := TotalCapacity(workers)
	entries := BuildPlan(targets, total, p.Weights.Money, p.Weights.Security)
	assignments := Assign(workers, entries)

	var jobs []job.Job
	for i := range assignments {
		a := &assignments[i]
		a.Ratio = BatchRatio(a.Target, p.Weights)
		split := a.Ratio.Split(a.Threads)
		for _, part := range []struct {
			kind    job.Kind
			threads int
		}{
			{job.Weaken, split.Weaken},
			{job.Hack, split.Hack},
			{job.Grow, split.Grow},
		} {
			if part.threads <= 0 {
				continue
			}
			jobs = append(jobs, job.New(part.kind, a.Target.Name, a.Host, part.threads, p.offset()))
		}
	}

	return &Plan{
		Strategy:      config.Proportional,
		Targets:       targets,
		Entries:       entries,
		Workers:       workers,
		TotalCapacity: total,
		Assignments:   assignments,
		Jobs:          jobs,
	}, nil
}

func (p *Proportional) offset() time.Duration {
	if p.MaxOffset <= 0 || p.rng == nil {
		return 0
	}
	return time.Duration(p.rng.Int63n(int64(p.MaxOffset)))
}
