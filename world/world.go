package world

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vasilii314/batcher/bridge"
	"github.com/vasilii314/batcher/job"
	"github.com/vasilii314/batcher/node"
)

const (
	hackSecurity   = 0.002
	growSecurity   = 0.004
	weakenSecurity = 0.05
	growTimeRatio  = 3.2
	weakenRatio    = 4
	maxSecurity    = 100
)

var (
	_ bridge.Runtime       = (*World)(nil)
	_ bridge.StatsReporter = (*World)(nil)
)

// state is a server together with its mutable fields.
type state struct {
	Server
	usedRam float64
}

type process struct {
	job     job.Job
	ram     float64
	started time.Time
	timer   *time.Timer
}

// World is an in-process game. It implements bridge.Runtime and
// bridge.StatsReporter. Jobs run on real timers, scaled by the
// topology's Scale, and change the target when they finish.
type World struct {
	mu      sync.Mutex
	home    string
	skill   int
	cost    float64
	scale   float64
	servers map[string]*state
	// db tracks every running process by job ID.
	db        map[uuid.UUID]*process
	rng       *rand.Rand
	completed int
	stolen    float64
}

func New(t Topology, seed int64) *World {
	t.applyDefaults()
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := &World{
		home:    t.Home,
		skill:   t.Skill,
		cost:    t.CostPerThread,
		scale:   t.Scale,
		servers: make(map[string]*state, len(t.Servers)),
		db:      make(map[uuid.UUID]*process),
		rng:     rand.New(rand.NewSource(seed)),
	}
	for _, s := range t.Servers {
		s.Neighbors = append([]string(nil), s.Neighbors...)
		w.servers[s.Name] = &state{Server: s}
	}
	return w
}

func (w *World) lookup(host string) (*state, error) {
	s, ok := w.servers[host]
	if !ok {
		return nil, fmt.Errorf("server %q: %w", host, bridge.ErrNotFound)
	}
	return s, nil
}

func (w *World) Neighbors(_ context.Context, host string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(host)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), s.Neighbors...), nil
}

func (w *World) Server(_ context.Context, host string) (node.Node, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(host)
	if err != nil {
		return node.Node{}, err
	}
	return w.snapshot(s), nil
}

func (w *World) snapshot(s *state) node.Node {
	hack := w.hackTime(s)
	return node.Node{
		Name:          s.Name,
		Home:          s.Name == w.home,
		Admin:         s.Admin,
		Backdoor:      s.Backdoor,
		MaxRam:        s.MaxRam,
		UsedRam:       s.usedRam,
		MaxMoney:      s.MaxMoney,
		Money:         s.Money,
		Security:      s.Security,
		MinSecurity:   s.MinSecurity,
		RequiredSkill: s.RequiredSkill,
		HackChance:    w.hackChance(s),
		HackFraction:  w.hackFraction(s),
		HackTime:      hack,
		GrowTime:      time.Duration(float64(hack) * growTimeRatio),
		WeakenTime:    hack * weakenRatio,
	}
}

func (w *World) PlayerSkill(context.Context) (int, error) {
	return w.skill, nil
}

func (w *World) CostPerThread(context.Context) (float64, error) {
	return w.cost, nil
}

// GrowthThreads returns the grow threads needed to multiply the
// money on host by multiplier.
func (w *World) GrowthThreads(_ context.Context, host string, multiplier float64) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(host)
	if err != nil {
		return 0, err
	}
	if multiplier <= 1 {
		return 0, nil
	}
	return math.Log(multiplier) / math.Log(s.GrowthRate), nil
}

// Spawn reserves RAM on the job's host and starts the action once
// its delay has passed.
func (w *World) Spawn(_ context.Context, j job.Job) error {
	if err := j.Validate(); err != nil {
		return fmt.Errorf("%w: %v", bridge.ErrInvalidJob, err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	host, err := w.lookup(j.Host)
	if err != nil {
		return err
	}
	target, err := w.lookup(j.Target)
	if err != nil {
		return err
	}
	if !host.Admin {
		return fmt.Errorf("host %q: %w", host.Name, bridge.ErrNoAdmin)
	}
	if !target.Admin {
		return fmt.Errorf("target %q: %w", target.Name, bridge.ErrNoAdmin)
	}
	ram := float64(j.Threads) * w.cost
	if host.usedRam+ram > host.MaxRam {
		return fmt.Errorf("host %q needs %.2fGB, has %.2fGB: %w",
			host.Name, ram, host.MaxRam-host.usedRam, bridge.ErrInsufficientRam)
	}
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if _, ok := w.db[j.ID]; ok {
		return fmt.Errorf("%w: job %s already running", bridge.ErrInvalidJob, j.ID)
	}

	host.usedRam += ram
	p := &process{job: j, ram: ram, started: time.Now()}
	runFor := j.Delay + w.duration(j.Kind, target)
	p.timer = time.AfterFunc(runFor, func() { w.finish(j.ID) })
	w.db[j.ID] = p
	return nil
}

// KillAll stops every process running on host.
func (w *World) KillAll(_ context.Context, host string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, err := w.lookup(host)
	if err != nil {
		return err
	}
	killed := 0
	for id, p := range w.db {
		if p.job.Host != host {
			continue
		}
		p.timer.Stop()
		delete(w.db, id)
		killed++
	}
	s.usedRam = 0
	if killed > 0 {
		log.Printf("[world.World] [KillAll] Killed %d processes on %s\n", killed, host)
	}
	return nil
}

func (w *World) Stats(context.Context) (bridge.Stats, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := bridge.Stats{
		Hosts:     len(w.servers),
		Processes: len(w.db),
		Threads:   make(map[string]int, 3),
		Completed: w.completed,
		Stolen:    w.stolen,
	}
	for _, s := range w.servers {
		if s.Admin {
			st.Rooted++
		}
		st.MaxRam += s.MaxRam
		st.UsedRam += s.usedRam
	}
	for _, p := range w.db {
		st.Threads[p.job.Kind.String()] += p.job.Threads
	}
	return st, nil
}

// Jobs lists the running jobs ordered by start time.
func (w *World) Jobs() []job.Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	procs := make([]*process, 0, len(w.db))
	for _, p := range w.db {
		procs = append(procs, p)
	}
	sort.Slice(procs, func(i, j int) bool {
		return procs[i].started.Before(procs[j].started)
	})
	res := make([]job.Job, 0, len(procs))
	for _, p := range procs {
		res = append(res, p.job)
	}
	return res
}

// finish applies a completed process to its target.
func (w *World) finish(id uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.db[id]
	if !ok {
		return
	}
	delete(w.db, id)
	if host, ok := w.servers[p.job.Host]; ok {
		host.usedRam = math.Max(0, host.usedRam-p.ram)
	}
	if target, ok := w.servers[p.job.Target]; ok {
		w.apply(p.job.Kind, target, p.job.Threads)
	}
	w.completed++
}

// apply changes target the way threads of kind do.
func (w *World) apply(kind job.Kind, s *state, threads int) {
	t := float64(threads)
	switch kind {
	case job.Hack:
		if w.rng.Float64() >= w.hackChance(s) {
			return
		}
		stolen := math.Min(s.Money, s.Money*w.hackFraction(s)*t)
		s.Money -= stolen
		w.stolen += stolen
		s.Security = math.Min(maxSecurity, s.Security+hackSecurity*t)
	case job.Grow:
		s.Money = math.Min(s.MaxMoney, (s.Money+t)*math.Pow(s.GrowthRate, t))
		s.Security = math.Min(maxSecurity, s.Security+growSecurity*t)
	case job.Weaken:
		s.Security = math.Max(s.MinSecurity, s.Security-weakenSecurity*t)
	}
}

func (w *World) securityFactor(s *state) float64 {
	return math.Max(0, (maxSecurity-s.Security)/maxSecurity)
}

func (w *World) hackChance(s *state) float64 {
	if w.skill <= 0 || s.RequiredSkill > w.skill {
		return 0
	}
	skill := 1.75 * float64(w.skill)
	chance := (skill - float64(s.RequiredSkill)) / skill * w.securityFactor(s)
	return math.Max(0, math.Min(1, chance))
}

func (w *World) hackFraction(s *state) float64 {
	if w.skill <= 0 || s.RequiredSkill > w.skill {
		return 0
	}
	skill := float64(w.skill)
	frac := w.securityFactor(s) * (skill - float64(s.RequiredSkill) + 1) / skill / 240
	return math.Max(0, math.Min(1, frac))
}

// hackTime grows with security above the floor and shrinks with
// the world scale.
func (w *World) hackTime(s *state) time.Duration {
	excess := math.Max(0, s.Security-s.MinSecurity)
	d := float64(s.HackTime) * (1 + excess/50) / w.scale
	return time.Duration(d)
}

func (w *World) duration(kind job.Kind, s *state) time.Duration {
	hack := w.hackTime(s)
	switch kind {
	case job.Grow:
		return time.Duration(float64(hack) * growTimeRatio)
	case job.Weaken:
		return hack * weakenRatio
	default:
		return hack
	}
}
