package bridge

import (
	"context"
	"errors"

	"github.com/vasilii314/batcher/job"
	"github.com/vasilii314/batcher/node"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNoAdmin         = errors.New("no admin access")
	ErrInsufficientRam = errors.New("insufficient ram")
	ErrInvalidJob      = errors.New("invalid job")
	ErrBadRequest      = errors.New("bad request")
)

// Runtime is the game as seen by the scheduler. Queries return a
// snapshot of the moment they are made; Spawn hands a job over and
// forgets it.
type Runtime interface {
	Neighbors(ctx context.Context, host string) ([]string, error)
	Server(ctx context.Context, host string) (node.Node, error)
	PlayerSkill(ctx context.Context) (int, error)
	// CostPerThread is the RAM (GB) one worker thread needs.
	CostPerThread(ctx context.Context) (float64, error)
	GrowthThreads(ctx context.Context, host string, multiplier float64) (float64, error)
	Spawn(ctx context.Context, j job.Job) error
	KillAll(ctx context.Context, host string) error
}

// Stats summarizes a runtime's hosts and running processes.
type Stats struct {
	Hosts     int            `json:"hosts"`
	Rooted    int            `json:"rooted"`
	MaxRam    float64        `json:"maxRam"`
	UsedRam   float64        `json:"usedRam"`
	Processes int            `json:"processes"`
	Threads   map[string]int `json:"threads"`
	Completed int            `json:"completed"`
	Stolen    float64        `json:"stolen"`
}

// StatsReporter is implemented by runtimes able to summarize
// themselves.
type StatsReporter interface {
	Stats(ctx context.Context) (Stats, error)
}
