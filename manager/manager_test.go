package manager

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/job"
	"github.com/vasilii314/batcher/node"
	"github.com/vasilii314/batcher/world"
)

func testWorld() *world.World {
	return world.New(world.Topology{
		Home:          "home",
		Skill:         10,
		CostPerThread: 2,
		Servers: []world.Server{
			{Name: "home", Neighbors: []string{"w1", "t", "locked"}, Admin: true, MaxRam: 32},
			{Name: "w1", Neighbors: []string{"home"}, Admin: true, MaxRam: 8},
			{Name: "t", Neighbors: []string{"home"}, Admin: true, MaxMoney: 1000, Money: 500, MinSecurity: 2, Security: 5, RequiredSkill: 1, HackTime: time.Hour},
			{Name: "locked", Neighbors: []string{"home"}, MaxRam: 64, MaxMoney: 5000, RequiredSkill: 1},
		},
	}, 1)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Seed = 1
	return cfg
}

func runningThreads(w *world.World) int {
	total := 0
	for _, j := range w.Jobs() {
		total += j.Threads
	}
	return total
}

func TestRunCycleDispatchesWholeCapacity(t *testing.T) {
	w := testWorld()
	m := New(w, testConfig(), nil)

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)

	// home keeps 8GB: (32-8)/2 + 8/2
	assert.Equal(t, 16, report.Capacity)
	assert.Equal(t, 2, report.Workers)
	assert.Equal(t, []string{"t"}, report.Targets)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, len(w.Jobs()), report.Dispatched)
	assert.Equal(t, 16, runningThreads(w))
	assert.Equal(t, 16, report.Threads["hack"]+report.Threads["grow"]+report.Threads["weaken"])
	assert.False(t, report.Finished.Before(report.Started))

	count, err := m.Reports.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunCycleKillsStaleJobs(t *testing.T) {
	w := testWorld()
	m := New(w, testConfig(), nil)
	ctx := context.Background()

	_, err := m.RunCycle(ctx)
	require.NoError(t, err)
	report, err := m.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, 16, report.Capacity)
	assert.Equal(t, 16, runningThreads(w))
}

func TestRunCycleWithoutKillStaleUsesFreeRamOnly(t *testing.T) {
	w := testWorld()
	cfg := testConfig()
	cfg.KillStale = false
	m := New(w, cfg, nil)
	ctx := context.Background()

	_, err := m.RunCycle(ctx)
	require.NoError(t, err)
	report, err := m.RunCycle(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Capacity)
	assert.Equal(t, 0, report.Dispatched)
	assert.Equal(t, 16, runningThreads(w))
}

func TestRunCycleIdlesWithoutTargets(t *testing.T) {
	w := world.New(world.Topology{
		Skill:         10,
		CostPerThread: 2,
		Servers: []world.Server{
			{Name: "home", Admin: true, MaxRam: 32},
		},
	}, 1)
	m := New(w, testConfig(), nil)

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Targets)
	assert.Equal(t, 0, report.Dispatched)
	assert.Equal(t, 12, report.Capacity)
	assert.Empty(t, w.Jobs())
}

// flaky fails chosen calls of an otherwise working world.
type flaky struct {
	*world.World
	badServer string
	badSpawn  string
	badSkill  bool
}

func (f *flaky) Server(ctx context.Context, host string) (node.Node, error) {
	if host == f.badServer {
		return node.Node{}, errors.New("timeout")
	}
	return f.World.Server(ctx, host)
}

func (f *flaky) Spawn(ctx context.Context, j job.Job) error {
	if j.Host == f.badSpawn {
		return errors.New("script failed to start")
	}
	return f.World.Spawn(ctx, j)
}

func (f *flaky) PlayerSkill(ctx context.Context) (int, error) {
	if f.badSkill {
		return 0, errors.New("bridge down")
	}
	return f.World.PlayerSkill(ctx)
}

func TestRunCycleCountsSpawnFailures(t *testing.T) {
	rt := &flaky{World: testWorld(), badSpawn: "w1"}
	m := New(rt, testConfig(), nil)

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Greater(t, report.Failed, 0)
	assert.Len(t, report.Errors, report.Failed)
	assert.Contains(t, report.Errors[0], "script failed to start")
	assert.Equal(t, 12, runningThreads(rt.World))
}

func TestObserveDropsFailingServers(t *testing.T) {
	rt := &flaky{World: testWorld(), badServer: "w1"}
	m := New(rt, testConfig(), nil)

	snap, err := m.Observe(context.Background())
	require.NoError(t, err)
	var names []string
	for _, n := range snap.Nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, "home", names[0])
	assert.NotContains(t, names, "w1")
	assert.Len(t, names, 3)
	assert.True(t, snap.Nodes[0].Home)
	assert.Equal(t, 10, snap.Skill)
	assert.Equal(t, 2.0, snap.CostPerThread)
}

func TestRunCycleFailsWithoutPlayer(t *testing.T) {
	rt := &flaky{World: testWorld(), badSkill: true}
	m := New(rt, testConfig(), nil)

	_, err := m.RunCycle(context.Background())
	assert.ErrorContains(t, err, "player skill")
	assert.Empty(t, rt.Jobs())
}

func TestPlanDoesNotDispatch(t *testing.T) {
	w := testWorld()
	m := New(w, testConfig(), nil)

	plan, err := m.Plan(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Jobs)
	assert.Empty(t, w.Jobs())
}

func TestRunCycleMicroBatch(t *testing.T) {
	w := testWorld()
	cfg := testConfig()
	cfg.Strategy = config.MicroBatch
	m := New(w, cfg, nil)

	report, err := m.RunCycle(context.Background())
	require.NoError(t, err)
	// security 5 is far above 2 * 1.05
	assert.True(t, report.WeakenOnly)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, report.Threads["weaken"], runningThreads(w))
}

func TestNextInterval(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = time.Minute
	m := New(testWorld(), cfg, nil)
	assert.Equal(t, time.Minute, m.nextInterval())

	cfg.IntervalMax = 90 * time.Second
	for i := 0; i < 100; i++ {
		d := m.nextInterval()
		assert.GreaterOrEqual(t, d, time.Minute)
		assert.Less(t, d, 90*time.Second)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w := testWorld()
	m := New(w, testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	count, err := m.Reports.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$999", Money(999))
	assert.Equal(t, "$1.25m", Money(1250000))
}

func TestReportsApi(t *testing.T) {
	m := New(testWorld(), testConfig(), nil)
	api := Api{Manager: m, Keep: 10}
	h := api.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ctx := context.Background()
	_, err := m.RunCycle(ctx)
	require.NoError(t, err)
	last, err := m.RunCycle(ctx)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/latest", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), last.ID.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports?limit=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), last.ID.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
