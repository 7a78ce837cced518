// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

// Mutex implements spec §4.6's fast and recursive mutex kinds. It is
// grounded on nsync.Mu (nsync/mu.go): a spinlock-guarded FIFO waiter
// queue and ownership tracked as a plain field rather than nsync's
// bit-packed atomic word, since spec §4.6 wants an explicit owning
// *Thread (for deadlock and "unlock by non-owner" detection) rather than
// nsync's anonymous-holder design. Waiting is done with this package's own
// suspend/restart protocol (park.go) instead of nsync's internal
// semaphore-backed waiter, and is explicitly not a cancellation point
// (spec §4.6: "a thread blocked acquiring a mutex is not eligible for
// cancellation"), matching pthread_mutex_lock's real behavior.
type Mutex struct {
	mu      spinlock
	kind    MutexKind
	owner   *Thread
	count   int32
	waiters waitQueue
}

// NewMutex returns a ready-to-use Mutex of the given kind.
func NewMutex(attr *MutexAttr) *Mutex {
	if attr == nil {
		attr = &MutexAttr{}
	}
	return &Mutex{kind: attr.Kind}
}

// Lock blocks self until it holds m (spec §4.6 pthread_mutex_lock). A fast
// mutex already held by self deadlocks, matching the C library's
// documented (if unhelpful) behavior for PTHREAD_MUTEX_FAST; a recursive
// mutex instead increments its hold count.
func (m *Mutex) Lock(self *Thread) error {
	m.mu.acquire()
	if m.owner == nil {
		m.owner, m.count = self, 1
		m.mu.release()
		return nil
	}
	if m.owner == self {
		if m.kind != MutexRecursive {
			m.mu.release()
			return newErr("pthread_mutex_lock", ErrDeadlock)
		}
		m.count++
		m.mu.release()
		return nil
	}
	m.waiters.enqueue(self)
	m.mu.release()

	suspend(self)
	// Ownership was transferred to self by the unlocking thread before it
	// called restart(self); nothing further to record here.
	return nil
}

// TryLock attempts to acquire m without blocking (spec §4.6
// pthread_mutex_trylock), returning false rather than waiting if it is
// held by another thread.
func (m *Mutex) TryLock(self *Thread) (bool, error) {
	m.mu.acquire()
	defer m.mu.release()
	if m.owner == nil {
		m.owner, m.count = self, 1
		return true, nil
	}
	if m.owner == self && m.kind == MutexRecursive {
		m.count++
		return true, nil
	}
	return false, nil
}

// Unlock releases one level of self's hold on m, waking the next FIFO
// waiter once the hold count reaches zero (spec §4.6
// pthread_mutex_unlock). Unlocking a mutex not held by self is an error.
func (m *Mutex) Unlock(self *Thread) error {
	m.mu.acquire()
	if m.owner != self {
		m.mu.release()
		return newErr("pthread_mutex_unlock", ErrPerm)
	}
	m.count--
	if m.count > 0 {
		m.mu.release()
		return nil
	}
	next := m.waiters.dequeue()
	m.owner = next
	if next != nil {
		m.count = 1
	}
	m.mu.release()
	if next != nil {
		restart(next)
	}
	return nil
}

// Destroy reports an error if m is currently held, mirroring
// pthread_mutex_destroy's "undefined if locked" precondition by at least
// refusing the call rather than leaving a waiter queue orphaned.
func (m *Mutex) Destroy() error {
	m.mu.acquire()
	defer m.mu.release()
	if m.owner != nil {
		return newErr("pthread_mutex_destroy", ErrBusy)
	}
	return nil
}
