// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

// CondAttr configures NewCond. Spec §4.7 only specifies the condition
// variable's wait/timedwait/signal/broadcast behavior, not a clock
// selection knob, but nsync's CV.WaitWithDeadline (nsync/cv.go) takes an
// absolute time.Time deadline the same way this package's TimedWait does,
// so there is nothing left for CondAttr to configure today; it exists so
// a future clock-selection attribute (CLOCK_MONOTONIC vs CLOCK_REALTIME)
// can be added without an API break.
type CondAttr struct{}
