// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import "time"

// Semaphore implements spec §4.8's counting semaphore. The original
// representation packs the count and a waiter-list pointer into one
// machine word, updated with a single CAS, so Post never has to take a
// lock in the uncontended case; spec §9 explicitly licenses an
// alternative representation "a struct holding an atomic count and a
// lock-protected waiter list" for runtimes where pointer-tagging a word
// is unsound, which describes Go exactly: an untraced uintptr does not
// keep its referent alive under a moving or precise collector, so the
// original's single-word trick cannot be ported as-is. This type takes that
// alternative's struct shape, except that count is a plain int32 rather
// than an atomic, and every operation, Post included, takes the spinlock.
//
// count and waiters are mutated only while mu is held. A waiter's failed
// decrement and its enqueue must appear atomic with respect to Post's
// increment and dequeue, or a Post landing between the two is never
// observed by the waiter it should have woken; holding mu across both
// halves of each operation is what gives the two a single total order.
type Semaphore struct {
	mu      spinlock
	count   int32
	waiters waitQueue
}

// NewSemaphore returns a Semaphore initialized to value (spec §4.8
// sem_init). A negative initial value is rejected.
func NewSemaphore(value int32) (*Semaphore, error) {
	if value < 0 {
		return nil, newErr("sem_init", ErrInvalid)
	}
	return &Semaphore{count: value}, nil
}

// Post increments s, waking one waiter if any are parked (spec §4.8
// sem_post).
func (s *Semaphore) Post() error {
	s.mu.acquire()
	s.count++
	w := s.waiters.dequeue()
	s.mu.release()
	if w != nil {
		restart(w)
	}
	return nil
}

// Wait decrements s, blocking self if its value is already zero (spec
// §4.8 sem_wait). It is a cancellation point.
func (s *Semaphore) Wait(self *Thread) error {
	self.testCancelEntry("sem_wait")
	for {
		if s.tryDecrementOrEnqueue(self) {
			return nil
		}

		reason := suspendWithCancellation(self)
		if reason == wakeCancel {
			s.mu.acquire()
			s.waiters.removeTargeted(self)
			s.mu.release()
			self.exitCanceled()
			return nil // unreachable
		}
		// Restarted: loop and race to decrement again, the same way a
		// Post and a timeout can otherwise both think they own the slot.
	}
}

// TimedWait is Wait with an absolute deadline (spec §4.8
// sem_timedwait).
func (s *Semaphore) TimedWait(self *Thread, deadline time.Time) error {
	self.testCancelEntry("sem_timedwait")
	for {
		if s.tryDecrementOrEnqueue(self) {
			return nil
		}

		reason := suspendWithDeadline(self, deadline)
		if reason != wakeRestart {
			s.mu.acquire()
			s.waiters.removeTargeted(self)
			s.mu.release()
		}
		switch reason {
		case wakeCancel:
			self.exitCanceled()
			return nil // unreachable
		case wakeTimeout:
			return newErr("sem_timedwait", ErrTimedOut)
		}
	}
}

// TryWait decrements s without blocking if its value is positive (spec
// §4.8 sem_trywait).
func (s *Semaphore) TryWait() (bool, error) {
	s.mu.acquire()
	ok := s.tryDecrementLocked()
	s.mu.release()
	return ok, nil
}

// Value returns s's current count (spec §4.8 sem_getvalue); per POSIX, a
// negative result is implementation-defined and this implementation never
// produces one (waiters are tracked separately, not as a negative count).
func (s *Semaphore) Value() int32 {
	s.mu.acquire()
	v := s.count
	s.mu.release()
	return v
}

// tryDecrementOrEnqueue attempts the decrement and, on failure, enqueues
// self as a waiter, all under a single critical section so the outcome is
// total with respect to a concurrent Post (see the type doc comment).
func (s *Semaphore) tryDecrementOrEnqueue(self *Thread) bool {
	s.mu.acquire()
	defer s.mu.release()
	if s.tryDecrementLocked() {
		return true
	}
	s.waiters.enqueue(self)
	return false
}

func (s *Semaphore) tryDecrementLocked() bool {
	if s.count <= 0 {
		return false
	}
	s.count--
	return true
}
