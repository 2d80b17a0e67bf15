package store

import (
	"fmt"
	"sort"
	"sync"
)

type InMemoryReportStore struct {
	mu sync.RWMutex
	Db map[string]*Report
}

func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{
		Db: make(map[string]*Report),
	}
}

func (i *InMemoryReportStore) Put(key string, r *Report) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Db[key] = r
	return nil
}

func (i *InMemoryReportStore) Get(key string) (*Report, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	r, ok := i.Db[key]
	if !ok {
		return nil, fmt.Errorf("report with key %s does not exist", key)
	}
	return r, nil
}

// List returns every report in key order.
func (i *InMemoryReportStore) List() ([]*Report, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	keys := make([]string, 0, len(i.Db))
	for k := range i.Db {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	reports := make([]*Report, 0, len(keys))
	for _, k := range keys {
		reports = append(reports, i.Db[k])
	}
	return reports, nil
}

func (i *InMemoryReportStore) Count() (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.Db), nil
}

func (i *InMemoryReportStore) Recent(n int) ([]*Report, error) {
	all, err := i.List()
	if err != nil {
		return nil, err
	}
	return recent(all, n), nil
}

func (i *InMemoryReportStore) Close() error {
	return nil
}
