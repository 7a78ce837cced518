// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import "time"

// Cond implements spec §4.7's Mesa-style condition variable, grounded on
// nsync.CV (nsync/cv.go): Wait atomically releases the associated Mutex
// and parks, and a waiter is always moved back onto the mutex's own
// contention path before it can proceed, so a signal never itself grants
// ownership of the mutex. Unlike nsync.CV, which transfers waiters
// directly onto the Mu's waiter list to avoid a thundering herd, this
// Cond reacquires the mutex the ordinary way through Mutex.Lock; spec §4.7
// does not ask for nsync's optimization, and taking it would mean
// reaching into Mutex's waiter queue from outside mutex.go.
//
// Wait and TimedWait are cancellation points (spec §4.9): a thread
// canceled while parked is removed from the waiter queue and has its
// mutex reacquired for it before the cancellation cleanup handler runs,
// exactly as pthread_cond_wait's own cancellation contract requires, so a
// handler that assumes it is holding the mutex is not wrong.
type Cond struct {
	mu      spinlock
	waiters waitQueue
}

// NewCond returns a ready-to-use Cond. attr is currently unused (see
// CondAttr).
func NewCond(attr *CondAttr) *Cond {
	return &Cond{}
}

// Wait atomically unlocks m and blocks self until Signal or Broadcast
// wakes it, relocking m before returning (spec §4.7 pthread_cond_wait).
func (c *Cond) Wait(self *Thread, m *Mutex) error {
	self.testCancelEntry("pthread_cond_wait")

	c.mu.acquire()
	c.waiters.enqueue(self)
	c.mu.release()

	if err := m.Unlock(self); err != nil {
		c.mu.acquire()
		c.waiters.removeTargeted(self)
		c.mu.release()
		return err
	}

	reason := suspendWithCancellation(self)
	if reason == wakeCancel {
		c.mu.acquire()
		c.waiters.removeTargeted(self)
		c.mu.release()
	}

	m.Lock(self)

	if reason == wakeCancel {
		self.exitCanceled()
		return nil // unreachable
	}
	return nil
}

// TimedWait is Wait with an absolute deadline (spec §4.7
// pthread_cond_timedwait): if deadline passes before a wake or
// cancellation, it relocks m and returns ErrTimedOut.
func (c *Cond) TimedWait(self *Thread, m *Mutex, deadline time.Time) error {
	self.testCancelEntry("pthread_cond_timedwait")

	c.mu.acquire()
	c.waiters.enqueue(self)
	c.mu.release()

	if err := m.Unlock(self); err != nil {
		c.mu.acquire()
		c.waiters.removeTargeted(self)
		c.mu.release()
		return err
	}

	reason := suspendWithDeadline(self, deadline)
	if reason != wakeRestart {
		c.mu.acquire()
		c.waiters.removeTargeted(self)
		c.mu.release()
	}

	m.Lock(self)

	switch reason {
	case wakeCancel:
		self.exitCanceled()
		return nil // unreachable
	case wakeTimeout:
		return newErr("pthread_cond_timedwait", ErrTimedOut)
	default:
		return nil
	}
}

// Signal wakes at most one waiter, the longest-waiting one (spec §4.7
// pthread_cond_signal). It is safe to call without holding the associated
// mutex, though spec §4.7 recommends holding it to avoid a lost wake
// against a waiter that has not yet reached Wait's enqueue.
func (c *Cond) Signal() {
	c.mu.acquire()
	w := c.waiters.dequeue()
	c.mu.release()
	if w != nil {
		restart(w)
	}
}

// Broadcast wakes every current waiter (spec §4.7 pthread_cond_broadcast).
func (c *Cond) Broadcast() {
	c.mu.acquire()
	all := c.waiters.drain()
	c.mu.release()
	for _, w := range all {
		restart(w)
	}
}
