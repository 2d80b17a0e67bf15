package manager

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/docker/go-units"
	"github.com/vasilii314/batcher/bridge"
	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/scheduler"
	"github.com/vasilii314/batcher/store"
)

// maxReportErrors bounds the failure messages kept in one report.
const maxReportErrors = 20

var moneySuffixes = []string{"", "k", "m", "b", "t", "q"}

// Money formats an amount the way the game does, e.g. $1.25m.
func Money(amount float64) string {
	return "$" + units.CustomSize("%.4g%s", amount, 1000.0, moneySuffixes)
}

// Manager drives the scheduler against a runtime: kill stale jobs,
// observe, plan, dispatch, report, sleep.
type Manager struct {
	Runtime bridge.Runtime
	Config  *config.Config
	// Reports keeps a summary of every cycle.
	Reports store.ReportStore
	rng     *rand.Rand
	now     func() time.Time
}

func New(rt bridge.Runtime, cfg *config.Config, reports store.ReportStore) *Manager {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if reports == nil {
		reports = store.NewInMemoryReportStore()
	}
	return &Manager{
		Runtime: rt,
		Config:  cfg,
		Reports: reports,
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
	}
}

// growth binds the runtime's growth query to the cycle's context.
type growth struct {
	ctx context.Context
	rt  bridge.Runtime
}

func (g growth) GrowthThreads(target string, multiplier float64) (float64, error) {
	return g.rt.GrowthThreads(g.ctx, target, multiplier)
}

// Observe scans the network and snapshots every reachable server.
// Servers that cannot be queried are left out of this cycle.
func (m *Manager) Observe(ctx context.Context) (scheduler.Snapshot, error) {
	snap := scheduler.Snapshot{Home: m.Config.Home}

	skill, err := m.Runtime.PlayerSkill(ctx)
	if err != nil {
		return snap, fmt.Errorf("querying player skill: %w", err)
	}
	cost, err := m.Runtime.CostPerThread(ctx)
	if err != nil {
		return snap, fmt.Errorf("querying cost per thread: %w", err)
	}
	snap.Skill = skill
	snap.CostPerThread = cost

	hosts := scheduler.Scan(ctx, m.Runtime, m.Config.Home)
	for _, h := range hosts {
		n, err := m.Runtime.Server(ctx, h)
		if err != nil {
			log.Printf("[manager.Manager] [Observe] Dropping %s for this cycle: %v\n", h, err)
			continue
		}
		n.Home = h == m.Config.Home
		snap.Nodes = append(snap.Nodes, n)
	}
	m.debugf("Observe", "Scanned %d hosts, observed %d (skill %d, %.2fGB per thread)",
		len(hosts), len(snap.Nodes), skill, cost)
	return snap, nil
}

// killStale stops leftover jobs on every rooted server with RAM and
// refreshes its snapshot.
func (m *Manager) killStale(ctx context.Context, snap *scheduler.Snapshot) {
	for i, n := range snap.Nodes {
		if !n.Admin || n.MaxRam <= 0 {
			continue
		}
		if err := m.Runtime.KillAll(ctx, n.Name); err != nil {
			log.Printf("[manager.Manager] [killStale] Error killing jobs on %s: %v\n", n.Name, err)
			continue
		}
		fresh, err := m.Runtime.Server(ctx, n.Name)
		if err != nil {
			log.Printf("[manager.Manager] [killStale] Error refreshing %s: %v\n", n.Name, err)
			continue
		}
		fresh.Home = n.Home
		snap.Nodes[i] = fresh
	}
}

// Plan observes the game and returns what a cycle would dispatch
// without touching any running job.
func (m *Manager) Plan(ctx context.Context) (*scheduler.Plan, error) {
	snap, err := m.Observe(ctx)
	if err != nil {
		return nil, err
	}
	return scheduler.RunCycle(m.Config, snap, growth{ctx: ctx, rt: m.Runtime}, m.rng)
}

// RunCycle runs one full scheduling pass and stores its report.
// Spawn failures are counted in the report, never returned.
func (m *Manager) RunCycle(ctx context.Context) (*store.Report, error) {
	report := store.NewReport(m.now().UTC())
	report.Strategy = string(m.Config.Strategy)

	snap, err := m.Observe(ctx)
	if err != nil {
		return nil, err
	}
	if m.Config.KillStale {
		m.killStale(ctx, &snap)
	}
	plan, err := scheduler.RunCycle(m.Config, snap, growth{ctx: ctx, rt: m.Runtime}, m.rng)
	if err != nil {
		return nil, fmt.Errorf("planning cycle: %w", err)
	}
	m.logPlan(plan)

	for _, j := range plan.Jobs {
		if err := m.Runtime.Spawn(ctx, j); err != nil {
			report.Failed++
			msg := fmt.Sprintf("%s: %v", j, err)
			log.Printf("[manager.Manager] [RunCycle] Error spawning %s\n", msg)
			if len(report.Errors) < maxReportErrors {
				report.Errors = append(report.Errors, msg)
			}
			continue
		}
		report.Dispatched++
		report.Threads[j.Kind.String()] += j.Threads
		m.debugf("RunCycle", "Spawned %s", j)
	}

	for _, t := range plan.Targets {
		report.Targets = append(report.Targets, t.Name)
	}
	report.Workers = len(plan.Workers)
	report.Capacity = plan.TotalCapacity
	report.WeakenOnly = plan.WeakenOnly
	report.Income = plan.EstimatedIncome()
	report.Finished = m.now().UTC()

	if err := m.Reports.Put(report.Key(), report); err != nil {
		log.Printf("[manager.Manager] [RunCycle] Error storing report %s: %v\n", report.ID, err)
	}
	log.Printf("[manager.Manager] [RunCycle] Dispatched %d jobs (%d failed) against %v, est. %s/sec\n",
		report.Dispatched, report.Failed, report.Targets, Money(report.Income))
	return report, nil
}

func (m *Manager) logPlan(plan *scheduler.Plan) {
	freeRam := 0.0
	for _, w := range plan.Workers {
		freeRam += w.Node.FreeRam()
	}
	log.Printf("[manager.Manager] [RunCycle] %d workers, %d threads, %s free\n",
		len(plan.Workers), plan.TotalCapacity, units.BytesSize(freeRam*units.GiB))
	if len(plan.Targets) == 0 {
		log.Println("[manager.Manager] [RunCycle] No eligible target, idling this cycle")
		return
	}
	if !m.Config.Debug {
		return
	}
	for _, e := range plan.Entries {
		m.debugf("RunCycle", "%s weight=%.3f want=%.1f used=%d", e.Target.Name, e.Weight, e.Want, e.Used)
	}
	byHost := plan.ThreadsByHost()
	hosts := make([]string, 0, len(byHost))
	for h := range byHost {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	for _, h := range hosts {
		m.debugf("RunCycle", "%s runs %d threads", h, byHost[h])
	}
}

// Run loops cycles until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	for {
		log.Println("[manager.Manager] [Run] Starting cycle")
		if _, err := m.RunCycle(ctx); err != nil {
			log.Printf("[manager.Manager] [Run] Cycle failed: %v\n", err)
		}
		wait := m.nextInterval()
		log.Printf("[manager.Manager] [Run] Sleeping for %s\n", units.HumanDuration(wait))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// nextInterval draws the sleep between cycles from
// [Interval, IntervalMax) when a range is configured.
func (m *Manager) nextInterval() time.Duration {
	lo, hi := m.Config.Interval, m.Config.IntervalMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(m.rng.Int63n(int64(hi-lo)))
}

func (m *Manager) debugf(method, format string, args ...any) {
	if !m.Config.Debug {
		return
	}
	log.Printf("[manager.Manager] ["+method+"] "+format+"\n", args...)
}
