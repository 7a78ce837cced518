// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import (
	"errors"
	"testing"
)

// newTestThread returns a bare descriptor suitable for exercising a
// synchronization primitive directly, without going through Create and
// its manager goroutine. Tests that need the full lifecycle (Join,
// cancellation unwinding a real goroutine) use MainThread().Create
// instead.
func newTestThread(t *testing.T) *Thread {
	t.Helper()
	th := newDescriptor(nil, nil, make(sigset))
	th.id = allocID()
	t.Cleanup(func() { releaseID(th.id) })
	return th
}

func isCode(err error, code error) bool {
	return errors.Is(err, code)
}
