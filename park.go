// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import "time"

// This file implements spec §4.2 "Suspend and restart": the RESTART/CANCEL
// wake protocol every synchronization primitive in this package is built
// on. Per SPEC_FULL.md §0, the two reserved signals are realized as two
// independent, single-slot notification channels per descriptor rather
// than real kernel signals and sigsuspend/siglongjmp — the "one-bit
// parking primitive" spec §9 explicitly licenses as a substitute, as long
// as it preserves the lost-wake property.
//
// Ordering guarantee (spec §4.2): if thread A enqueues B on a wait queue
// under that queue's spinlock and then calls restart(B), B is guaranteed
// either to already have observed the enqueue and be past the suspend call,
// in which case the buffered wake is waiting in B.wake for B's next suspend
// call, or to be about to call suspend and immediately see the buffered
// value. Because restart() and cancelNotify() write to *independent*
// single-slot channels, a RESTART can never be lost by colliding with a
// concurrent CANCEL notification on the same slot (an earlier design that
// shared one channel had exactly that bug: see DESIGN.md).

// restart wakes target, delivering a RESTART. Mirrors restart() in
// restart.h: send-and-forget, coalesced if a wake is already pending,
// exactly like an unqueued Unix signal.
func restart(target *Thread) {
	select {
	case target.wake <- struct{}{}:
	default:
	}
}

// cancelNotify wakes a thread parked in a cancellation-aware wait so it can
// re-check its cancellation state promptly, without itself carrying any
// payload — the pending state lives in target.canceled, set by Cancel.
func cancelNotify(target *Thread) {
	select {
	case target.cancelNotify <- struct{}{}:
	default:
	}
}

// suspend blocks self until restart(self) is called. The caller must have
// already enqueued self on whatever structure will later call restart, per
// the ordering guarantee above; calling suspend before enqueueing loses
// the wake exactly as it would in the original signal-based design.
func suspend(self *Thread) {
	<-self.wake
}

// suspendWithCancellation is the cancellation-aware variant used by Join,
// Cond.Wait and Semaphore.Wait (spec §4.9 "cancellation points"); the timed
// waits use suspendWithDeadline below, and SigWait runs its own select over
// the same two channels. It returns wakeCancel if cancellation was already pending and
// enabled before blocking, or becomes so while blocked; otherwise it
// returns wakeRestart once restart(self) is called.
//
// Asynchronous cancellation delivered while a thread is parked in a
// *non*-cancellation-aware suspend (e.g. the mutex lock/unlock wait, which
// spec §4.6 explicitly suspends "no cancellation") is observed at the
// thread's next cancellation-aware suspend or explicit TestCancel call
// rather than interrupting that wait immediately: Go provides no
// mechanism to preempt an arbitrary blocked goroutine the way a real
// SIGCANCEL handler can siglongjmp out of any blocking syscall, so the
// bound this package gives on asynchronous-cancellation latency is "by the
// next cancellation point that goroutine reaches," not "immediately."
// This is documented in DESIGN.md as a deliberate, Go-specific narrowing
// of spec §5's latency bound.
func suspendWithCancellation(self *Thread) wakeReason {
	if self.cancelPendingEnabled() {
		return wakeCancel
	}
	for {
		select {
		case <-self.wake:
			return wakeRestart
		case <-self.cancelNotify:
			if self.cancelPendingEnabled() {
				return wakeCancel
			}
			// Canceled-but-disabled, or a stale notification: keep
			// waiting for the real wake.
		}
	}
}

// suspendWithDeadline is suspendWithCancellation's timed variant, used by
// Cond.TimedWait and Semaphore.TimedWait (spec §4.7). It additionally
// returns wakeTimeout if deadline passes before either a restart or a
// cancellation is observed.
func suspendWithDeadline(self *Thread, deadline time.Time) wakeReason {
	if self.cancelPendingEnabled() {
		return wakeCancel
	}
	d := deadlineOrZero(deadline)
	if d <= 0 {
		return wakeTimeout
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-self.wake:
			return wakeRestart
		case <-self.cancelNotify:
			if self.cancelPendingEnabled() {
				return wakeCancel
			}
		case <-timer.C:
			return wakeTimeout
		}
	}
}

// cancelPendingEnabled reports whether self has a pending, enabled
// cancellation request (spec §4.9's repeated predicate "canceled ∧
// cancelstate=ENABLE").
func (t *Thread) cancelPendingEnabled() bool {
	t.mu.acquire()
	defer t.mu.release()
	return t.canceled && t.cancelState == CancelEnable
}
