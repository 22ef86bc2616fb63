package latches

import (
	"fmt"
	"sync"

	"github.com/tinykms/tinykms/kms/resource"
)

// Latching serializes whole transactions against each other at the
// resource level. The engine's layout and per-output locks only cover a
// single resource's read-modify-swap step; by latching every resource a
// transaction touches before checking, we ensure two transactions (or a
// transaction and a legacy single-resource update) staging the same
// resource never interleave, while transactions on disjoint resource sets
// run in true parallel.
//
// A latch is a per-resource lock. Latching is implemented with a single
// map from resource keys to a Go WaitGroup, guarded by a mutex so that
// latching is atomic and consistent. All resources a transaction touches
// must be latched at once.

// Key returns the latch key for a resource.
func Key(res resource.Object) string {
	return fmt.Sprintf("%s/%d", res.Kind(), res.ID())
}

// Keys returns the latch keys for a touched-resource set.
func Keys(objs []resource.Object) []string {
	keys := make([]string, 0, len(objs))
	for _, res := range objs {
		keys = append(keys, Key(res))
	}
	return keys
}

type Latches struct {
	// Before committing against a resource, the thread must hold the latch
	// for that resource's key. Threads who find a key latched should wait
	// on its WaitGroup.
	latchMap map[string]*sync.WaitGroup
	// Guards latchMap.
	latchGuard sync.Mutex
}

// NewLatches creates a Latches object for managing a device's latches.
// There should only be one such object, shared between all threads.
func NewLatches() *Latches {
	return &Latches{latchMap: make(map[string]*sync.WaitGroup)}
}

// AcquireLatches tries to lock all latches specified by keys. If this
// succeeds, nil is returned. If any key is latched already, AcquireLatches
// returns a WaitGroup the thread can use to be woken when it frees.
func (l *Latches) AcquireLatches(keys []string) *sync.WaitGroup {
	l.latchGuard.Lock()
	defer l.latchGuard.Unlock()

	// Check none of the resources we want to commit are latched.
	for _, key := range keys {
		if wg, ok := l.latchMap[key]; ok {
			return wg
		}
	}

	// All latches are available, lock them all with a new wait group.
	wg := new(sync.WaitGroup)
	wg.Add(1)
	for _, key := range keys {
		l.latchMap[key] = wg
	}

	return nil
}

// ReleaseLatches releases the latches for all keys, waking any threads
// blocked on one of them. All keys must have been locked together in one
// call to AcquireLatches.
func (l *Latches) ReleaseLatches(keys []string) {
	l.latchGuard.Lock()
	defer l.latchGuard.Unlock()

	first := true
	for _, key := range keys {
		if first {
			wg := l.latchMap[key]
			wg.Done()
			first = false
		}
		delete(l.latchMap, key)
	}
}

// WaitForLatches locks all keys, waiting for latched ones to free and
// retrying. May block for an unbounded length of time.
func (l *Latches) WaitForLatches(keys []string) {
	for {
		wg := l.AcquireLatches(keys)
		if wg == nil {
			return
		}
		wg.Wait()
	}
}
