package service

import (
	"sync"
	"testing"
)

func TestAccountLocksSerializeSameID(t *testing.T) {
	locks := newAccountLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// alternate argument order to catch lock-order deadlocks
			var unlock func()
			if i%2 == 0 {
				unlock = locks.lock(1, 2)
			} else {
				unlock = locks.lock(2, 1)
			}
			counter++
			unlock()
		}(i)
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
	if n := locks.size(); n != 0 {
		t.Errorf("lock entries left: %d", n)
	}
}

func TestAccountLocksDuplicateIDs(t *testing.T) {
	locks := newAccountLocks()
	unlock := locks.lock(5, 5)
	if n := locks.size(); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
	unlock()
	if n := locks.size(); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}
