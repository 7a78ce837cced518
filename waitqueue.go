// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

// waitQueue is a singly-linked FIFO of *Thread, linked through each
// descriptor's own waitNext field (spec §3 "Wait queue"). Unlike nsync's
// dll (a doubly-linked, self-splicing list shared by Mu and CV), spec §2
// calls for exactly this simpler shape: head/tail pointers, FIFO insertion,
// and a targeted remove that preserves order — a descriptor can only ever
// be on one such queue at a time (spec §3 "Invariants"), so a backward
// pointer is never needed for O(1) self-removal the way nsync's is.
//
// Callers are required to hold whatever spinlock guards the queue (the
// owning Mutex's, Cond's or Semaphore's) across every method call;
// waitQueue itself holds no lock.
type waitQueue struct {
	head, tail *Thread
}

// empty reports whether the queue holds no waiters.
func (q *waitQueue) empty() bool { return q.head == nil }

// enqueue appends t to the tail of the queue. t must not already be queued
// anywhere (spec §3 invariant: at most one wait queue at a time).
func (q *waitQueue) enqueue(t *Thread) {
	t.waitNext = nil
	if q.tail == nil {
		q.head = t
	} else {
		q.tail.waitNext = t
	}
	q.tail = t
}

// dequeue removes and returns the head of the queue, or nil if empty.
func (q *waitQueue) dequeue() *Thread {
	t := q.head
	if t == nil {
		return nil
	}
	q.head = t.waitNext
	if q.head == nil {
		q.tail = nil
	}
	t.waitNext = nil
	return t
}

// removeTargeted removes t from the queue if present, preserving the order
// of the remaining waiters, and reports whether t was found. This backs the
// "targeted remove" spec §3/§4.7 requires when a cancellation or timeout
// races with a concurrent signal/broadcast that may already have dequeued
// the same waiter.
func (q *waitQueue) removeTargeted(t *Thread) bool {
	var prev *Thread
	for cur := q.head; cur != nil; prev, cur = cur, cur.waitNext {
		if cur != t {
			continue
		}
		if prev == nil {
			q.head = cur.waitNext
		} else {
			prev.waitNext = cur.waitNext
		}
		if cur == q.tail {
			q.tail = prev
		}
		cur.waitNext = nil
		return true
	}
	return false
}

// drain empties the queue into a slice in FIFO order, for Broadcast-style
// callers that need to wake every waiter at once without re-walking the
// list under the lock.
func (q *waitQueue) drain() []*Thread {
	var all []*Thread
	for t := q.dequeue(); t != nil; t = q.dequeue() {
		all = append(all, t)
	}
	return all
}
