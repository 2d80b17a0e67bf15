package job

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind int

const (
	Hack Kind = iota
	Grow
	Weaken
)

var kindNames = map[Kind]string{
	Hack:   "hack",
	Grow:   "grow",
	Weaken: "weaken",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown job kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Job is one dispatched unit of work. Once handed to the
// runtime it is never touched again by the scheduler.
type Job struct {
	// Unique identifier
	ID   uuid.UUID `json:"id"`
	Kind Kind      `json:"kind"`
	// Target is the server the action runs against,
	// Host is the server whose RAM runs the threads.
	Target  string `json:"target"`
	Host    string `json:"host"`
	Threads int    `json:"threads"`
	// Delay before the action starts
	Delay time.Duration `json:"delay"`
}

func New(kind Kind, target, host string, threads int, delay time.Duration) Job {
	return Job{
		ID:      uuid.New(),
		Kind:    kind,
		Target:  target,
		Host:    host,
		Threads: threads,
		Delay:   delay,
	}
}

// Validate rejects jobs a runtime could never start.
func (j Job) Validate() error {
	if j.Target == "" || j.Host == "" {
		return fmt.Errorf("job %s: target and host are required", j.ID)
	}
	if j.Threads <= 0 {
		return fmt.Errorf("job %s: threads must be positive, got %d", j.ID, j.Threads)
	}
	if j.Delay < 0 {
		return fmt.Errorf("job %s: negative delay %v", j.ID, j.Delay)
	}
	if _, ok := kindNames[j.Kind]; !ok {
		return fmt.Errorf("job %s: invalid kind %d", j.ID, int(j.Kind))
	}
	return nil
}

func (j Job) String() string {
	return fmt.Sprintf("%s %s@%s t=%d delay=%v", j.Kind, j.Target, j.Host, j.Threads, j.Delay)
}
