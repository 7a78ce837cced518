// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import (
	"sync"
	"sync/atomic"

	"github.com/userthreads/pthread/internal/idpool"
)

// This file holds the one piece of state spec §5 says must be centralized:
// the live ring of every non-exited thread descriptor, anchored at the
// main thread, mutated by the manager goroutine (manager.go) apart from
// MainThread's first insertion and simulateFork's reset. Every
// other field of a Thread is private to that Thread or guarded by its own
// spinlock; this is the sole exception, and it is guarded by its own
// mutex rather than folded into any one Thread's lock, mirroring spec §5's
// point that the live ring is a resource of the process, not of any
// particular descriptor.
var registry = struct {
	mu   sync.Mutex
	ids  *idpool.Pool
	seq  uint64
	main *Thread
}{ids: idpool.New()}

// ringInsert links t into the live ring immediately after anchor, or makes
// t a single-element ring if anchor is nil (the first call, for main).
func ringInsert(anchor, t *Thread) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if anchor == nil {
		t.ringPrev, t.ringNext = t, t
		return
	}
	next := anchor.ringNext
	t.ringPrev, t.ringNext = anchor, next
	anchor.ringNext = t
	next.ringPrev = t
}

// ringRemove unlinks t from the live ring. The manager calls it when a
// non-main thread exits, and again for its FREE request (spec §4.3), where
// it is a no-op because t is already solitary.
func ringRemove(t *Thread) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if t.ringPrev == t {
		return // already solitary/removed
	}
	t.ringPrev.ringNext = t.ringNext
	t.ringNext.ringPrev = t.ringPrev
	t.ringPrev, t.ringNext = t, t
}

// ringEmpty reports whether the live ring contains only the main thread,
// the condition lifecycle.go's Wait (the implicit "process exit" join
// behind main returning, spec §4.5) blocks on.
func ringEmpty() bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	m := registry.main
	return m == nil || (m.ringNext == m && m.ringPrev == m)
}

// ringSnapshot returns every live descriptor, main first, for
// KillOtherThreads (signals.go).
func ringSnapshot() []*Thread {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	m := registry.main
	if m == nil {
		return nil
	}
	out := []*Thread{m}
	for cur := m.ringNext; cur != m; cur = cur.ringNext {
		out = append(out, cur)
	}
	return out
}

// ringReset collapses the live ring down to solely the calling thread,
// used by the post-fork child (fork.go) where every other descriptor's
// goroutine does not exist in the child process.
func ringReset(survivor *Thread) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	survivor.ringPrev, survivor.ringNext = survivor, survivor
	registry.main = survivor
}

// ringCount returns the number of live descriptors, main included.
func ringCount() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	m := registry.main
	if m == nil {
		return 0
	}
	n := 1
	for cur := m.ringNext; cur != m; cur = cur.ringNext {
		n++
	}
	return n
}

func nextSeq() uint64 {
	return atomic.AddUint64(&registry.seq, 1)
}

func allocID() int32 {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.ids.Acquire()
}

func releaseID(id int32) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.ids.Release(id)
}
