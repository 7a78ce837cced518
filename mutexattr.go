// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

// MutexKind selects a Mutex's locking discipline (spec §4.6 "mutex
// kind"). It corresponds to pthread_mutexattr_settype's PTHREAD_MUTEX_FAST
// (the default, re-locking by the owner deadlocks) and
// PTHREAD_MUTEX_RECURSIVE (re-locking by the owner increments a count).
type MutexKind int32

const (
	MutexFast MutexKind = iota
	MutexRecursive
)

// MutexAttr configures NewMutex. The zero value selects MutexFast.
type MutexAttr struct {
	Kind MutexKind
}
