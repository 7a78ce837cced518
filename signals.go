// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/userthreads/pthread/internal/rtlog"
)

// Signal is a Unix signal number, as accepted by Kill and SigMask.
type Signal = syscall.Signal

// RestartSignal and CancelSignal are the two signals this library reserves
// for its own internal wake/cancel-notify protocol (spec §4.2, §6
// "Reserved signals"). SigMask applies the pthread_sigmask-style
// corrections below to them, and Kill refuses to target either. Unlike the corresponding C library,
// where these are literally SIGUSR1/SIGUSR2 delivered to the target's
// kernel task, the fast-wake path here never actually raises these as
// kernel signals (see SPEC_FULL.md §0); the constants exist so that code
// written against this package, and callers inspecting Thread.blockedSigs,
// see the same documented signal numbers the original implementation uses.
const (
	RestartSignal Signal = unix.SIGUSR1
	CancelSignal  Signal = unix.SIGUSR2
)

// sigset is the per-thread blocked-signal bookkeeping of spec §3's
// "initial function, argument, signal mask" field. It is intentionally not
// backed by a real kernel sigprocmask: Go's runtime intercepts all signals
// at the process level and cannot block an individual OS thread against an
// individual signal without risking the runtime's own signal-based
// preemption and os/signal plumbing (see SPEC_FULL.md §0). SigMask instead
// tracks which signals the *library* considers blocked for this thread.
// Nothing else consults it: SigWait subscribes to the requested signals
// through os/signal.Notify without checking this set, and no signal
// delivery is blocked because of it.
type sigset map[Signal]bool

func (s sigset) clone() sigset {
	out := make(sigset, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

const (
	SigBlock = iota
	SigUnblock
	SigSetMask
)

// SigMask inspects or changes t's blocked-signal set, forwarding the
// request with the mandatory corrections of spec §4.11: RESTART is always
// added to whatever the caller wants blocked, CANCEL is always removed
// from whatever the caller wants unblocked or set as the mask.
func (t *Thread) SigMask(how int, set []Signal) (old []Signal, err error) {
	t.mu.acquire()
	defer t.mu.release()

	for sig := range t.blockedSigs {
		old = append(old, sig)
	}

	switch how {
	case SigBlock:
		next := t.blockedSigs.clone()
		for _, sig := range set {
			next[sig] = true
		}
		next[RestartSignal] = true
		t.blockedSigs = next
	case SigUnblock:
		next := t.blockedSigs.clone()
		for _, sig := range set {
			if sig == CancelSignal {
				continue // unblock must never clear CANCEL
			}
			delete(next, sig)
		}
		t.blockedSigs = next
	case SigSetMask:
		next := make(sigset, len(set)+1)
		for _, sig := range set {
			if sig == CancelSignal {
				continue // explicit set-mask must remove CANCEL
			}
			next[sig] = true
		}
		next[RestartSignal] = true // explicit set-mask must add RESTART
		t.blockedSigs = next
	default:
		return nil, newErr("pthread_sigmask", ErrInvalid)
	}
	return old, nil
}

// Kill sends sig to the thread's underlying kernel task (pthread_kill).
// RESTART and CANCEL are library-owned and may not be targeted this way.
func (t *Thread) Kill(sig Signal) error {
	if sig == RestartSignal || sig == CancelSignal {
		return newErr("pthread_kill", ErrInvalid)
	}
	tid := t.tid
	if tid == 0 {
		// The target hasn't recorded its OS thread id yet (it is still
		// starting up); there is no kernel task to direct the signal at.
		return newErr("pthread_kill", ErrAgain)
	}
	_, _, errno := unix.RawSyscall(unix.SYS_TGKILL, uintptr(unix.Getpid()), uintptr(tid), uintptr(sig))
	if errno != 0 {
		rtlog.Errorf("pthread_kill: tgkill(tid=%d, sig=%v): %v", tid, sig, errno)
		return newErr("pthread_kill", errno)
	}
	return nil
}

// KillOtherThreads marks every live thread except self for cancellation
// and notifies it (pthread_kill_other_threads_np), spec §6's programmatic
// surface. It is meant to be called immediately before an exec-family call
// that would otherwise leave sibling OS threads running underneath the new
// program image. The original sends a real, unblockable kernel signal,
// which on Linux is thread-directed in name only: SIGKILL delivered to any
// thread is fatal to the whole thread group, tearing down the process the
// caller is about to exec over anyway. Raising that same kernel signal
// here would be equally fatal to the Go process hosting this library
// before it ever reaches exec, so this port reuses the library's own
// Cancel notification instead: like the original, it performs no
// synchronization with its targets and does not wait for them to die or
// remove them from the live ring, it simply guarantees every other thread
// observes cancellation at its next cancellation point rather than
// surviving into the caller's exec.
func (self *Thread) KillOtherThreads() {
	for _, t := range ringSnapshot() {
		if t == self {
			continue
		}
		t.Cancel()
	}
}

// SigWait blocks the calling thread until one of the signals in set is
// delivered to the process, reporting the first one received; it is a
// cancellation point (spec §4.11). CANCEL is implicitly excluded from set.
func (t *Thread) SigWait(set []Signal) (Signal, error) {
	t.testCancelEntry("sigwait")
	filtered := make([]os.Signal, 0, len(set))
	for _, sig := range set {
		if sig == CancelSignal {
			continue
		}
		filtered = append(filtered, sig)
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, filtered...)
	defer signal.Stop(ch)

	for {
		select {
		case sig := <-ch:
			return sig.(syscall.Signal), nil
		case <-t.wake:
			// A spurious RESTART while sigwaiting has no defined
			// meaning; keep waiting for a real signal or cancellation.
		case <-t.cancelNotify:
			if t.cancelPendingEnabled() {
				t.exitCanceled()
			}
		}
	}
}
