// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

// onceState is the three-way state pthread_once's control block tracks:
// nobody has started the initializer, somebody is running it, or it has
// completed (spec §6 programmatic surface: "once").
type onceState int32

const (
	onceNotDone onceState = iota
	onceInProgress
	onceDone
)

// Once is a pthread_once_t equivalent: init runs exactly once across every
// caller that shares this Once, and every other caller blocks until it
// completes. It is built on this package's own Mutex and Cond rather than
// the standard library's sync.Once so that a caller canceled mid-init is
// handled the way glibc's pthread_once is: the in-progress state is rolled
// back and a later caller gets to retry the initializer, instead of every
// waiter deadlocking behind a Once that can never complete.
type Once struct {
	mu    *Mutex
	cond  *Cond
	state onceState
}

// NewOnce returns a ready-to-use Once (pthread_once_init, conceptually;
// POSIX spells this PTHREAD_ONCE_INIT as a static initializer instead).
func NewOnce() *Once {
	return &Once{mu: NewMutex(&MutexAttr{Kind: MutexFast}), cond: NewCond(nil)}
}

// Do runs init exactly once for this Once, from whichever calling thread
// gets there first; every other caller blocks until init has returned
// (spec §6 pthread_once). It is a cancellation point only insofar as
// waiting for another caller's init is: if self is canceled while running
// init itself, the Once resets to its initial state and exitCanceled
// still runs via self's normal cancellation-point unwinding.
func (self *Thread) Do(o *Once, init func()) error {
	if err := o.mu.Lock(self); err != nil {
		return err
	}
	for o.state == onceInProgress {
		if err := o.cond.Wait(self, o.mu); err != nil {
			o.mu.Unlock(self)
			return err
		}
	}
	if o.state == onceDone {
		o.mu.Unlock(self)
		return nil
	}
	o.state = onceInProgress
	o.mu.Unlock(self)

	self.CleanupPush(func(any) {
		o.mu.Lock(self)
		o.state = onceNotDone
		o.mu.Unlock(self)
		o.cond.Broadcast()
	}, nil)
	init()
	self.CleanupPop(false)

	o.mu.Lock(self)
	o.state = onceDone
	o.mu.Unlock(self)
	o.cond.Broadcast()
	return nil
}
