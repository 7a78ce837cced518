// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import (
	"runtime"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/userthreads/pthread/internal/rtlog"
)

// This file implements spec §4.5 "Thread lifecycle": Create, Exit, Join
// and Detach, plus the process's static main-thread descriptor every live
// ring is anchored on.

var mainOnce sync.Once
var mainThread *Thread

// MainThread returns the process's initial thread, creating its
// descriptor on first call. The descriptor is built here rather than
// through Create; Join and Detach do not refuse it as a target.
func MainThread() *Thread {
	mainOnce.Do(func() {
		t := newDescriptor(nil, nil, make(sigset))
		t.id = allocID()
		t.seq = nextSeq()
		t.name = "main"
		t.main = true
		t.tid = int32(unix.Gettid())
		registry.mu.Lock()
		registry.main = t
		registry.mu.Unlock()
		ringInsert(nil, t)
		mainThread = t
	})
	return mainThread
}

// Create starts a new thread running fn(self, arg), inheriting self's
// signal mask (spec §4.1 "a new thread inherits the creating thread's
// signal mask") and returns once the new thread's goroutine has recorded
// its OS thread id, mirroring the original manager's CREATE request,
// which does not reply to the creator until the child's kernel task
// exists (spec §4.3).
func (self *Thread) Create(attr *ThreadAttr, fn func(self *Thread, arg any) any, arg any) (*Thread, error) {
	if attr == nil {
		attr = DefaultThreadAttr()
	}
	if err := attr.Validate(); err != nil {
		return nil, err
	}

	t := newDescriptor(fn, arg, self.blockedSigs.clone())
	t.id = allocID()
	t.seq = nextSeq()
	t.name = attr.Name
	t.detached = attr.DetachState == CreateDetached

	mgrSend(reqCreate, t, self)

	ready := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		t.mu.acquire()
		t.tid = int32(unix.Gettid())
		t.mu.release()
		close(ready)

		retval := t.initialFn(t, t.initialArg)
		t.runKeyDestructors()
		t.runCleanupStack()
		t.finish(retval, nil)
	}()
	<-ready

	rtlog.Infof("pthread_create: id=%d name=%q detached=%v", t.id, t.name, t.detached)
	return t, nil
}

// Exit terminates the calling thread self, making retval available to a
// joiner (spec §4.5 pthread_exit). It never returns.
func (self *Thread) Exit(retval any) {
	self.runCleanupStack()
	self.runKeyDestructors()
	self.finish(retval, nil)
	runtime.Goexit()
}

// Join blocks self until target terminates, returning target's exit
// value. It is a cancellation point (spec §4.9). Joining a detached
// thread, a thread already claimed by a different joiner, or target
// itself is an error.
func (self *Thread) Join(target *Thread) (any, error) {
	if target == self {
		return nil, newErr("pthread_join", ErrDeadlock)
	}
	self.testCancelEntry("pthread_join")

	target.mu.acquire()
	if target.detached {
		target.mu.release()
		return nil, newErr("pthread_join", ErrInvalid)
	}
	if target.joiner != nil && target.joiner != self {
		target.mu.release()
		return nil, newErr("pthread_join", ErrInvalid)
	}
	if target.exited {
		retval, retcode := target.retval, target.retcode
		target.mu.release()
		mgrSend(reqFree, target, nil)
		return retval, retcode
	}
	target.joiner = self
	target.mu.release()

	if suspendWithCancellation(self) == wakeCancel {
		target.mu.acquire()
		if target.joiner == self {
			target.joiner = nil
		}
		target.mu.release()
		self.exitCanceled()
		return nil, nil // unreachable
	}

	target.mu.acquire()
	retval, retcode := target.retval, target.retcode
	target.mu.release()
	mgrSend(reqFree, target, nil)
	return retval, retcode
}

// Detach marks target as unjoinable, allowing the manager to reclaim its
// descriptor as soon as it exits rather than waiting for a Join that will
// never come (spec §4.5 pthread_detach). Detaching an already-detached or
// already-claimed thread is an error.
func (self *Thread) Detach(target *Thread) error {
	target.mu.acquire()
	if target.detached {
		target.mu.release()
		return newErr("pthread_detach", ErrInvalid)
	}
	if target.joiner != nil {
		target.mu.release()
		return newErr("pthread_detach", ErrInvalid)
	}
	target.detached = true
	exited := target.exited
	target.mu.release()
	if exited {
		mgrSend(reqFree, target, nil)
	}
	return nil
}

// finish records t's outcome and wakes whichever of a waiting joiner or
// the manager's own reclamation path is responsible for t next; called
// from both the normal end of the goroutine Create started and from
// exitCanceled.
func (t *Thread) finish(retval any, retcode error) {
	t.mu.acquire()
	if t.exited {
		t.mu.release()
		return
	}
	t.exited = true
	t.terminated = true
	t.retval = retval
	t.retcode = retcode
	joiner := t.joiner
	detached := t.detached
	main := t.main
	t.mu.release()

	mgrSend(reqProcessExit, t, nil)

	switch {
	case joiner != nil:
		restart(joiner)
	case detached:
		mgrSend(reqFree, t, nil)
	case main:
		// The main thread's own descriptor is never freed; Wait uses
		// ringEmpty to notice when it is the sole survivor.
	}
}

// Wait blocks the calling thread until every thread but the main thread
// has exited, the behavior a process's real main() relies on to avoid
// returning out from under still-running threads (spec §4.5 "a process
// does not terminate merely because its initial thread returns while
// other threads remain").
func Wait() {
	for !ringEmpty() {
		runtime.Gosched()
	}
}
