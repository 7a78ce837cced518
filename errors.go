// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import "fmt"

// PthreadError is the error type returned by every exported operation in
// this package, mirroring the errno-return convention of the pthread_*
// family it implements: nothing is ever panicked or raised out of band.
// Callers compare with errors.Is against the sentinel values below.
type PthreadError struct {
	// Op is the name of the failing operation, e.g. "pthread_join".
	Op string
	// Code is the POSIX-flavored error this error wraps.
	Code error
}

func (e *PthreadError) Error() string {
	if e.Op == "" {
		return e.Code.Error()
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code.Error())
}

func (e *PthreadError) Unwrap() error { return e.Code }

// errCode is a leaf error identifying a single POSIX error condition. It
// intentionally carries no text other than the symbolic name so that
// errors.Is comparisons are exact, as errno comparisons are in C.
type errCode string

func (e errCode) Error() string { return string(e) }

// Sentinel error codes, grouped per spec §7's taxonomy.
var (
	// Argument errors.
	ErrInvalid = errCode("EINVAL")

	// Resource errors.
	ErrAgain  = errCode("EAGAIN")
	ErrNoMem  = errCode("ENOMEM")
	ErrNoSys  = errCode("ENOSYS")
	ErrNotSup = errCode("ENOTSUP")

	// Contention / state errors.
	ErrBusy     = errCode("EBUSY")
	ErrDeadlock = errCode("EDEADLK")
	ErrPerm     = errCode("EPERM")

	// Operation outcome.
	ErrTimedOut = errCode("ETIMEDOUT")
	ErrInterrupted = errCode("EINTR")
	ErrRange    = errCode("ERANGE")
)

// newErr wraps code as the result of operation op. A nil code yields a nil
// error so that call sites can write `return newErr(op, checkSomething())`.
func newErr(op string, code error) error {
	if code == nil {
		return nil
	}
	return &PthreadError{Op: op, Code: code}
}

// Canceled is the distinguished return value a canceled thread's join
// partner observes, distinct from any legitimate application return value
// (spec §4.9, §7 "A canceled thread terminates normally and returns the
// canceled sentinel to its joiner").
var Canceled = &struct{ canceled bool }{canceled: true}
