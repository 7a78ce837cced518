// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import (
	"runtime"
	"sync/atomic"
)

// spinlock is a test-and-set lock that spins and yields the CPU on
// contention, the Go analogue of the abstract test-and-set primitive and
// acquire loop of spec §4.1. It guards the small, short-held critical
// sections protecting a descriptor's own fields or a wait queue; unlike
// sync.Mutex it never parks a goroutine, so it is safe to take from within
// the wake path without risking a deadlock against the scheduler.
//
// The zero value is an unlocked spinlock.
type spinlock struct {
	held uint32
}

// acquire spins on test-and-set, yielding the CPU between tries, mirroring
// the acquire() loop in spinlock.h.
func (s *spinlock) acquire() {
	var attempts uint
	for !atomic.CompareAndSwapUint32(&s.held, 0, 1) {
		attempts = spinDelay(attempts)
	}
}

// release stores 0, the store barrier the atomic package already provides.
func (s *spinlock) release() {
	atomic.StoreUint32(&s.held, 0)
}

// tryAcquire attempts the lock without spinning, for TryLock-style callers.
func (s *spinlock) tryAcquire() bool {
	return atomic.CompareAndSwapUint32(&s.held, 0, 1)
}

// spinDelay backs a spin loop off after a handful of busy attempts, the same
// shape as nsync's spinDelay: a short empty-loop delay for the first few
// attempts, then a yield to the Go scheduler so a genuinely contended lock
// does not starve the holder of CPU time.
func spinDelay(attempts uint) uint {
	if attempts < 7 {
		for i := 0; i != 1<<attempts; i++ {
		}
		attempts++
	} else {
		runtime.Gosched()
	}
	return attempts
}
