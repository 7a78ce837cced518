// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import "runtime"

// This file implements spec §4.9 "Cancellation": the pending/enabled state
// machine, the cleanup-handler stack, and the cancellation points the rest
// of this package calls into (suspendWithCancellation in park.go, and the
// explicit testCancelEntry checks at the head of Join, Cond.Wait,
// Cond.TimedWait, Semaphore.Wait, Semaphore.TimedWait and SigWait).
//
// A canceled thread never returns to any of its own call frames: once
// cancellation is observed at a cancellation point, the thread unwinds via
// runtime.Goexit(), which runs every deferred function on the way out
// exactly as CleanupPop's "execute" variants expect, and then ends the
// goroutine. This is the Go-native analogue of siglongjmp into the
// cancellation cleanup handler: every method that can observe cancellation
// is written as though it returns normally, but exitCanceled never actually
// lets control reach the return statement after it (spec §4.9 "a canceled
// thread's start function never reaches its return statement").

// Cancel marks t for cancellation (spec §4.9 pthread_cancel). If t is
// currently blocked in a cancellation-aware wait, it is woken promptly;
// if it is running or blocked in a non-cancellation-aware wait, the
// request is observed at its next cancellation point (see park.go's
// suspendWithCancellation doc comment for the latency this implies).
func (t *Thread) Cancel() error {
	t.mu.acquire()
	if t.exited {
		t.mu.release()
		return newErr("pthread_cancel", ErrInvalid)
	}
	already := t.canceled
	t.canceled = true
	t.mu.release()
	if !already {
		cancelNotify(t)
	}
	return nil
}

// TestCancel is a thread-supplied cancellation point (spec §4.9
// pthread_testcancel): if a cancellation request is pending and enabled,
// the calling thread terminates now and never returns.
func (t *Thread) TestCancel() {
	t.testCancelEntry("pthread_testcancel")
}

// testCancelEntry is the check every cancellation point in this package
// performs before (and, where relevant, during and after) blocking. It
// returns normally if there is nothing to do; if cancellation is pending
// and enabled it calls exitCanceled, which never returns.
func (t *Thread) testCancelEntry(op string) {
	if t.cancelPendingEnabled() {
		t.exitCanceled()
	}
}

// exitCanceled runs t's cleanup-handler stack, records the distinguished
// Canceled return value a joiner observes, and terminates t's goroutine.
// Every caller must treat this as a function that never returns; Go cannot
// express that in the type system, so callers still need a syntactically
// reachable statement after the call (e.g. "return" or "return zeroVal"),
// but that statement never actually executes.
func (t *Thread) exitCanceled() {
	t.runCleanupStack()
	t.finish(Canceled, nil)
	runtime.Goexit()
}

// CleanupPush registers routine to run, in LIFO order, when t exits by
// normal return, by calling Exit, or by being canceled (spec §4.9
// "Cleanup handler stack"). It must be matched by a later CleanupPop from
// the same thread.
func (t *Thread) CleanupPush(routine func(arg any), arg any) {
	t.mu.acquire()
	t.cleanup = &cleanupFrame{routine: routine, arg: arg, prev: t.cleanup}
	t.mu.release()
}

// CleanupPop removes the most recently pushed cleanup handler, invoking it
// first if execute is true (spec §4.9 pthread_cleanup_pop).
func (t *Thread) CleanupPop(execute bool) {
	t.mu.acquire()
	frame := t.cleanup
	if frame == nil {
		t.mu.release()
		return
	}
	t.cleanup = frame.prev
	t.mu.release()
	if execute {
		frame.routine(frame.arg)
	}
}

// CleanupPushDefer is the "push_defer" variant of CleanupPush (spec §4.9:
// "the defer-kind push additionally saves the current canceltype then
// forces DEFERRED"), used to bracket a region that must not be
// asynchronously interrupted mid-operation. It must be matched by
// CleanupPopRestore, never by plain CleanupPop.
func (t *Thread) CleanupPushDefer(routine func(arg any), arg any) {
	t.mu.acquire()
	savedType := t.cancelType
	t.cancelType = CancelDeferred
	t.cleanup = &cleanupFrame{routine: routine, arg: arg, prev: t.cleanup, deferPush: true, savedType: savedType}
	t.mu.release()
}

// CleanupPopRestore is the matching pop for CleanupPushDefer: it is itself
// a cancellation point (spec §4.9's cancellation-point list names
// "cleanup-pop-restore"), so it first checks the ordinary
// canceled∧cancelstate=ENABLE predicate, then unlinks the frame, restores
// the canceltype CleanupPushDefer saved, invokes the handler if execute is
// true, and re-tests cancellation, exiting if pending∧enabled∧ASYNCHRONOUS
// now that the saved type is back in effect.
func (t *Thread) CleanupPopRestore(execute bool) {
	t.testCancelEntry("pthread_cleanup_pop_restore")

	t.mu.acquire()
	frame := t.cleanup
	if frame == nil {
		t.mu.release()
		return
	}
	t.cleanup = frame.prev
	if frame.deferPush {
		t.cancelType = frame.savedType
	}
	t.mu.release()

	if execute {
		frame.routine(frame.arg)
	}

	if frame.deferPush {
		t.mu.acquire()
		async := t.canceled && t.cancelState == CancelEnable && t.cancelType == CancelAsynchronous
		t.mu.release()
		if async {
			t.exitCanceled()
		}
	}
}

// runCleanupStack unwinds every remaining cleanup handler in LIFO order;
// called from both exitCanceled and the normal Exit path (lifecycle.go).
func (t *Thread) runCleanupStack() {
	for {
		t.mu.acquire()
		frame := t.cleanup
		if frame == nil {
			t.mu.release()
			return
		}
		t.cleanup = frame.prev
		t.mu.release()
		frame.routine(frame.arg)
	}
}

// SetCancelState implements pthread_setcancelstate, returning the previous
// state. Disabling cancellation while a cancellation request is already
// pending simply defers its effect to the next re-enable.
func (t *Thread) SetCancelState(state cancelState) (old cancelState, err error) {
	if state != CancelEnable && state != CancelDisable {
		return 0, newErr("pthread_setcancelstate", ErrInvalid)
	}
	t.mu.acquire()
	old = t.cancelState
	t.cancelState = state
	t.mu.release()
	return old, nil
}

// SetCancelType implements pthread_setcanceltype, returning the previous
// type. Only deferred and asynchronous cancellation points are meaningful
// here (see DESIGN.md, "Asynchronous cancellation latency", on why asynchronous cancellation in this port
// still only interrupts at the next cancellation point rather than at an
// arbitrary instruction).
func (t *Thread) SetCancelType(typ cancelType) (old cancelType, err error) {
	if typ != CancelDeferred && typ != CancelAsynchronous {
		return 0, newErr("pthread_setcanceltype", ErrInvalid)
	}
	t.mu.acquire()
	old = t.cancelType
	t.cancelType = typ
	t.mu.release()
	return old, nil
}
