// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import "os"

// DetachState, SchedPolicy, InheritSched and Scope are the four thread
// attributes spec §4.1 requires a conforming implementation to carry,
// mirroring pthread_attr_t's detachstate, schedpolicy, inheritsched and
// scope fields.
type DetachState int32

const (
	CreateJoinable DetachState = iota
	CreateDetached
)

type SchedPolicy int32

const (
	SchedOther SchedPolicy = iota
	SchedFIFO
	SchedRR
)

type InheritSched int32

const (
	InheritSchedAttr InheritSched = iota
	ExplicitSched
)

type Scope int32

const (
	ScopeSystem Scope = iota
	ScopeProcess
)

// ThreadAttr collects the attributes Create consults when starting a new
// thread (spec §4.1 "Thread attributes object"). The zero value is not
// valid; use DefaultThreadAttr.
type ThreadAttr struct {
	DetachState  DetachState
	SchedPolicy  SchedPolicy
	InheritSched InheritSched
	Scope        Scope
	Priority     int

	// Name is a supplemental attribute beyond spec.md's literal text,
	// seeding Thread.name (pthread_setname_np) at creation instead of
	// requiring a separate call immediately after Create returns.
	Name string
}

// DefaultThreadAttr returns the attribute set pthread_attr_init documents:
// joinable, SCHED_OTHER, inherited scheduling, system contention scope.
func DefaultThreadAttr() *ThreadAttr {
	return &ThreadAttr{
		DetachState:  CreateJoinable,
		SchedPolicy:  SchedOther,
		InheritSched: InheritSchedAttr,
		Scope:        ScopeSystem,
	}
}

// Validate rejects attribute combinations spec §4.1 and §6 call out as
// invalid or unsupported: an unknown detach state, scope or scheduling
// policy, a nonzero Priority under SchedOther, PROCESS contention scope (spec §6: "scope: SYSTEM (default, only
// supported), PROCESS (returns unsupported)"), and a non-OTHER scheduling
// policy requested by a non-root caller (spec §6: "non-OTHER requires
// root"; spec §7: "PERM (elevated scheduler without root — reported as
// NOTSUP here)"). InheritSched is not checked, and Priority is not
// range-checked under SchedFIFO or SchedRR.
func (a *ThreadAttr) Validate() error {
	switch a.DetachState {
	case CreateJoinable, CreateDetached:
	default:
		return newErr("pthread_attr_setdetachstate", ErrInvalid)
	}
	switch a.Scope {
	case ScopeSystem:
	case ScopeProcess:
		return newErr("pthread_attr_setscope", ErrNotSup)
	default:
		return newErr("pthread_attr_setscope", ErrInvalid)
	}
	switch a.SchedPolicy {
	case SchedOther, SchedFIFO, SchedRR:
	default:
		return newErr("pthread_attr_setschedpolicy", ErrInvalid)
	}
	if a.SchedPolicy == SchedOther && a.Priority != 0 {
		return newErr("pthread_attr_setschedparam", ErrInvalid)
	}
	if a.SchedPolicy != SchedOther && os.Geteuid() != 0 {
		return newErr("pthread_attr_setschedpolicy", ErrNotSup)
	}
	return nil
}
