package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vasilii314/batcher/config"
)

type Store[K comparable, V any] interface {
	Put(key K, value V) error
	Get(key K) (V, error)
	List() ([]V, error)
	Count() (int, error)
}

// ReportStore keeps cycle reports ordered by start time.
type ReportStore interface {
	Store[string, *Report]
	// Recent returns at most n reports, newest first.
	Recent(n int) ([]*Report, error)
	Close() error
}

// Report summarizes one scheduler cycle.
type Report struct {
	ID         uuid.UUID      `json:"id"`
	Started    time.Time      `json:"started"`
	Finished   time.Time      `json:"finished"`
	Strategy   string         `json:"strategy"`
	Targets    []string       `json:"targets"`
	Workers    int            `json:"workers"`
	Capacity   int            `json:"capacity"`
	Threads    map[string]int `json:"threads"`
	Dispatched int            `json:"dispatched"`
	Failed     int            `json:"failed"`
	WeakenOnly bool           `json:"weakenOnly"`
	// Income is the estimated money per second of the plan.
	Income float64  `json:"income"`
	Errors []string `json:"errors,omitempty"`
}

func NewReport(started time.Time) *Report {
	return &Report{
		ID:      uuid.New(),
		Started: started,
		Threads: make(map[string]int),
	}
}

// Key orders reports by start time.
func (r *Report) Key() string {
	return fmt.Sprintf("%020d-%s", r.Started.UnixNano(), r.ID)
}

// Duration is how long the cycle took.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// New opens the report store described by cfg.
func New(cfg config.Store) (ReportStore, error) {
	switch cfg.Type {
	case config.InMemoryStore, "":
		return NewInMemoryReportStore(), nil
	case config.PersistentStore:
		return NewPersistentReportStore(cfg.Path, 0600, cfg.Bucket)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func recent(all []*Report, n int) []*Report {
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	res := make([]*Report, 0, n)
	for i := len(all) - 1; i >= len(all)-n; i-- {
		res = append(res, all[i])
	}
	return res
}
