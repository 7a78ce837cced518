// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import (
	"sync"
	"syscall"

	"github.com/userthreads/pthread/internal/rtlog"
)

// This file implements spec §4.12's atfork hooks. A real fork(2) call
// that returns into a multithreaded Go program's child without an
// immediate exec is not safe: the runtime's own background goroutines
// (the GC, the sysmon thread, netpoller) do not survive the fork, yet the
// child process still believes they are running, and every mutex or
// channel held by a goroutine that did not happen to be the forking one
// is permanently stuck. This is a stricter version of the same hazard
// POSIX itself warns about for any multithreaded forking process (only
// async-signal-safe calls are well-defined between fork and exec); Go
// simply has no way to satisfy even that narrow safe zone. Fork therefore
// only ever forks-and-execs in one atomic kernel operation
// (syscall.ForkExec, via clone()+execve() with no Go code running
// in between), matching the "fork immediately followed by exec" pattern
// POSIX itself recommends for multithreaded programs. The child-side hook
// is consequently only ever exercised through simulateFork, this
// package's test-only stand-in for a real fork that never execs.
var atforkMu sync.Mutex
var atforkHooks []atforkHook

type atforkHook struct {
	prepare func()
	parent  func()
	child   func()
}

// AtFork registers hooks to run around a Fork call, in the order spec
// §4.12 specifies: every registered prepare runs, most-recently-registered
// first, before the fork; every registered parent runs,
// least-recently-registered first, in the parent after the fork; every
// registered child would run, least-recently-registered first, in the
// child after the fork, were the child to return into Go code at all (see
// the package doc comment above).
func AtFork(prepare, parent, child func()) {
	atforkMu.Lock()
	defer atforkMu.Unlock()
	atforkHooks = append(atforkHooks, atforkHook{prepare: prepare, parent: parent, child: child})
}

// Fork execs argv0 in a freshly forked child, running registered prepare
// and parent hooks around the operation (spec §4.12 pthread_atfork +
// fork). It returns the child's pid to the parent; there is no "zero
// return value observed in the child" branch, because the child never
// executes Go code before execve replaces its image.
func Fork(argv0 string, argv []string, attr *syscall.ProcAttr) (pid int, err error) {
	runPrepareHooks()
	pid, err = syscall.ForkExec(argv0, argv, attr)
	runParentHooks(pid, err)
	return pid, err
}

func runPrepareHooks() {
	atforkMu.Lock()
	hooks := append([]atforkHook(nil), atforkHooks...)
	atforkMu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		if hooks[i].prepare != nil {
			hooks[i].prepare()
		}
	}
}

func runParentHooks(pid int, err error) {
	atforkMu.Lock()
	hooks := append([]atforkHook(nil), atforkHooks...)
	atforkMu.Unlock()
	for _, h := range hooks {
		if h.parent != nil {
			h.parent()
		}
	}
	if err != nil {
		rtlog.Errorf("fork: %v", err)
	} else {
		rtlog.Infof("fork: child pid=%d", pid)
	}
}

func runChildHooks() {
	atforkMu.Lock()
	hooks := append([]atforkHook(nil), atforkHooks...)
	atforkMu.Unlock()
	for _, h := range hooks {
		if h.child != nil {
			h.child()
		}
	}
}

// simulateFork exercises the prepare/parent/child hook ordering and the
// live-ring reset a real fork's child would need, without calling the
// kernel: it is this package's test-only substitute for a fork that
// returns into Go code, letting tests verify atfork ordering and
// post-fork single-thread invariants (spec §4.12, §8) that a real Fork
// call can never observe from inside this process.
func simulateFork(survivor *Thread) {
	runPrepareHooks()
	runParentHooks(0, nil)
	ringReset(survivor)
	runChildHooks()
}
