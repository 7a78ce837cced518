// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

// This file implements spec §6's "library hooks": a single,
// process-global recursive lock the C library's otherwise single-threaded
// internals (malloc, stdio, locale) are expected to take before touching
// shared state, once a program has linked this package in. The real NPTL
// satisfies this by overriding libc's weak __pthread_mutex_lock symbol;
// there is no equivalent symbol-interposition mechanism available from a
// Go package, so this exposes the same hook as ordinary exported
// functions instead, for any package in this process (a custom allocator,
// a generated parser's shared scratch buffer) that wants the same
// "becomes thread-safe automatically once pthread is in the binary"
// guarantee without taking a direct dependency on Mutex.
var libcLock = NewMutex(&MutexAttr{Kind: MutexRecursive})

// LibcLock acquires the process-wide libc-compatibility lock on behalf of
// self. Recursive: a thread already holding it may call LibcLock again.
func LibcLock(self *Thread) error {
	return libcLock.Lock(self)
}

// LibcUnlock releases one level of self's hold on the libc-compatibility
// lock.
func LibcUnlock(self *Thread) error {
	return libcLock.Unlock(self)
}

// LibcTryLock attempts to acquire the libc-compatibility lock without
// blocking.
func LibcTryLock(self *Thread) (bool, error) {
	return libcLock.TryLock(self)
}
