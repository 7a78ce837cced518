// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package attrflag adapts pthread.ThreadAttr's small enumerations to
// pflag.Value (String/Set/Type), adapted from the String/Set/Get shape
// cmdline/flag.go uses to let
// a symbolic flag value (here "joinable"/"fifo"/"system", there a
// variable-substituted string) be parsed straight off the command line
// instead of requiring callers to know the underlying enum's integer
// values.
package attrflag

import (
	"fmt"

	"github.com/userthreads/pthread"
)

// DetachState adapts pthread.DetachState to pflag.Value.
type DetachState struct{ Value pthread.DetachState }

func (f *DetachState) String() string {
	if f.Value == pthread.CreateDetached {
		return "detached"
	}
	return "joinable"
}

func (f *DetachState) Set(raw string) error {
	switch raw {
	case "joinable":
		f.Value = pthread.CreateJoinable
	case "detached":
		f.Value = pthread.CreateDetached
	default:
		return fmt.Errorf("invalid detachstate %q, want joinable or detached", raw)
	}
	return nil
}

func (f *DetachState) Type() string { return "detachstate" }

// SchedPolicy adapts pthread.SchedPolicy to pflag.Value.
type SchedPolicy struct{ Value pthread.SchedPolicy }

func (f *SchedPolicy) String() string {
	switch f.Value {
	case pthread.SchedFIFO:
		return "fifo"
	case pthread.SchedRR:
		return "rr"
	default:
		return "other"
	}
}

func (f *SchedPolicy) Set(raw string) error {
	switch raw {
	case "other":
		f.Value = pthread.SchedOther
	case "fifo":
		f.Value = pthread.SchedFIFO
	case "rr":
		f.Value = pthread.SchedRR
	default:
		return fmt.Errorf("invalid schedpolicy %q, want other, fifo or rr", raw)
	}
	return nil
}

func (f *SchedPolicy) Type() string { return "schedpolicy" }

// Scope adapts pthread.Scope to pflag.Value.
type Scope struct{ Value pthread.Scope }

func (f *Scope) String() string {
	if f.Value == pthread.ScopeProcess {
		return "process"
	}
	return "system"
}

func (f *Scope) Set(raw string) error {
	switch raw {
	case "system":
		f.Value = pthread.ScopeSystem
	case "process":
		f.Value = pthread.ScopeProcess
	default:
		return fmt.Errorf("invalid scope %q, want system or process", raw)
	}
	return nil
}

func (f *Scope) Type() string { return "scope" }
