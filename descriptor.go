// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import "time"

// cancelState and cancelType are the two small enumerations of spec §4.9.
type cancelState int32

const (
	CancelEnable cancelState = iota
	CancelDisable
)

type cancelType int32

const (
	CancelDeferred cancelType = iota
	CancelAsynchronous
)

// cleanupFrame is one entry of a thread's cleanup-handler stack (spec §4.9
// "Cleanup handler"), pushed by CleanupPush and popped by CleanupPop.
type cleanupFrame struct {
	routine    func(arg any)
	arg        any
	prev       *cleanupFrame
	savedType  cancelType // only meaningful for the "push_defer" variant
	deferPush  bool
}

// Thread is the per-thread descriptor (spec §3 "Thread descriptor"). A
// *Thread is returned by Create, and the running thread's own handle is
// passed to its start function; every pthread_* operation that spec.md
// phrases as acting implicitly on "the calling thread" is a method on this
// type (see SPEC_FULL.md §0 for why this package threads the handle
// explicitly rather than recovering it from thread-local storage).
//
// Exactly one goroutine, locked to exactly one OS thread for its lifetime,
// runs behind each Thread (spec §3 invariant: "Exactly one kernel task per
// descriptor").
type Thread struct {
	// live ring membership; owned exclusively by the manager (spec §5
	// "Shared resources": "The live ring is mutated only by the manager").
	ringPrev, ringNext *Thread

	// waitNext links this descriptor into at most one waitQueue at a time
	// (mutex waiters, condvar waiters, or a semaphore's waiter chain).
	waitNext *Thread

	// id is a small monotonically-assigned identifier, analogous to the
	// kernel task id used for directed signals; allocated from idpool.
	id int32
	// tid is the underlying OS thread id (unix.Gettid()), valid once the
	// thread's goroutine has called runtime.LockOSThread and recorded it.
	// Used by Kill/Sigwait (spec §4.11) to target a specific OS thread.
	tid int32

	seq  uint64 // creation order (nextSeq); nothing in the package reads it
	name string // pthread_setname_np-style descriptive name (SPEC_FULL §2.1)

	mu spinlock // guards every field below (spec §3 "spinlock")

	wake         chan struct{} // the per-descriptor RESTART channel, cap 1
	cancelNotify chan struct{} // the per-descriptor CANCEL channel, cap 1

	terminated bool
	detached   bool
	exited     bool

	retval  any
	retcode error // result of Create, as observed by the creating thread

	joiner *Thread // the unique thread waiting in Join, if any

	cleanup *cleanupFrame

	cancelState cancelState
	cancelType  cancelType
	canceled    bool

	lastErr error // per-thread errno-equivalent slot

	initialFn   func(self *Thread, arg any) any
	initialArg  any
	blockedSigs sigset

	specific [keysMax]any

	main bool // true only for the process's initial thread
}

// wakeReason is what suspendWithCancellation and suspendWithDeadline
// report as the cause of a wake: an ordinary RESTART, a CANCEL
// notification, or an expired deadline (spec §4.2, §4.9). It is not sent
// over any channel; wake and cancelNotify carry empty structs.
type wakeReason int

const (
	wakeRestart wakeReason = iota
	wakeCancel
	wakeTimeout
)

// ID returns a small integer identifying the thread, stable for its
// lifetime; analogous to the kernel task id of spec §3.
func (t *Thread) ID() int32 { return t.id }

// Name returns the descriptive name set at creation or via SetName.
func (t *Thread) Name() string {
	t.mu.acquire()
	defer t.mu.release()
	return t.name
}

// SetName updates the thread's descriptive name (pthread_setname_np).
func (t *Thread) SetName(name string) {
	t.mu.acquire()
	t.name = name
	t.mu.release()
}

// Equal reports whether a and b name the same thread (pthread_equal).
func Equal(a, b *Thread) bool { return a == b }

// newDescriptor allocates and initializes a descriptor for a new thread.
// It does not assign an id or link the descriptor into the live ring; the
// caller does both (Create links it through the manager's CREATE request).
func newDescriptor(fn func(self *Thread, arg any) any, arg any, mask sigset) *Thread {
	t := &Thread{
		wake:         make(chan struct{}, 1),
		cancelNotify: make(chan struct{}, 1),
		initialFn:    fn,
		initialArg:   arg,
		blockedSigs:  mask,
		cancelState:  CancelEnable,
		cancelType:   CancelDeferred,
	}
	return t
}

// deadlineOrZero converts an absolute deadline into a relative duration,
// returning <=0 if the deadline has already passed (spec §4.7 timedwait
// "Compute a relative interval; if non-positive, return timed-out").
func deadlineOrZero(abs time.Time) time.Duration {
	return time.Until(abs)
}
