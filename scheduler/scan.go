package scheduler

import (
	"context"
	"log"

	"github.com/golang-collections/collections/queue"
)

// Topology lists the direct neighbors of a host.
type Topology interface {
	Neighbors(ctx context.Context, host string) ([]string, error)
}

// Scan returns every host reachable from root, each exactly once,
// root first. A host whose neighbors cannot be listed is treated
// as a leaf.
func Scan(ctx context.Context, topo Topology, root string) []string {
	seen := map[string]struct{}{root: {}}
	found := []string{root}
	q := queue.New()
	q.Enqueue(root)
	for q.Len() > 0 {
		cur := q.Dequeue().(string)
		neighbors, err := topo.Neighbors(ctx, cur)
		if err != nil {
			log.Printf("[scheduler] [Scan] Skipping neighbors of %s: %v\n", cur, err)
			continue
		}
		for _, n := range neighbors {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			found = append(found, n)
			q.Enqueue(n)
		}
	}
	return found
}
