package service

import (
	"sort"
	"sync"
)

// accountLocks hands out one mutex per account id. Entries are reference
// counted and dropped once nobody holds or waits on them.
type accountLocks struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int64]*lockEntry)}
}

// lock acquires the mutexes of every id in ascending order and returns the release func.
// Duplicate ids are locked once.
func (l *accountLocks) lock(ids ...int64) func() {
	ordered := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	entries := make([]*lockEntry, len(ordered))
	l.mu.Lock()
	for i, id := range ordered {
		e, ok := l.locks[id]
		if !ok {
			e = &lockEntry{}
			l.locks[id] = e
		}
		e.refs++
		entries[i] = e
	}
	l.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
	}

	return func() {
		for i := len(entries) - 1; i >= 0; i-- {
			entries[i].mu.Unlock()
		}
		l.mu.Lock()
		for i, id := range ordered {
			entries[i].refs--
			if entries[i].refs == 0 {
				delete(l.locks, id)
			}
		}
		l.mu.Unlock()
	}
}

// size reports how many ids currently have a lock entry
func (l *accountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
