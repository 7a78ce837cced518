// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pthread implements the POSIX threads programming model on top of
// goroutines pinned one-to-one to OS threads.
//
// It exists for the cases where sync.Mutex, sync.Cond and channels are not
// quite the right shape: callers that need pthread's exact cancellation
// semantics, a mutex that can be trylocked, a condition variable with an
// absolute deadline, or a thread that can be addressed with a real Unix
// signal. Every operation here mirrors the corresponding pthread_* call in
// both name and behavior; see the package-level documentation on Thread,
// Mutex, Cond and Semaphore for the precise contract of each.
//
// A thread created with Create is backed by exactly one goroutine, locked to
// exactly one OS thread for its entire lifetime (runtime.LockOSThread),
// mirroring the one-kernel-task-per-descriptor invariant of the clone()-based
// implementations this package's design is drawn from. A small manager
// goroutine, started lazily on the first Create, serializes thread creation,
// descriptor release and process-wide exit, exactly as a dedicated manager
// thread does in those implementations; synchronization primitives
// (Mutex, Cond, Semaphore) never touch the manager, they operate purely via
// spinlock-guarded wait queues and a per-thread wake channel.
package pthread
