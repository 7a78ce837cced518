// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rtlog is the small internal facade the rest of this module logs
// through. The teacher library's own logging package (vlog) wraps a
// third-party leveled-logging engine (llog) behind exactly this kind of
// thin internal type so call sites never import the engine directly; this
// package does the same, wrapping github.com/rs/zerolog instead, since
// vlog's own engine import (github.com/cosmosnicolaou/llog) pulls in a
// pre-modules veyron2 dependency chain absent from go.mod (see DESIGN.md).
package rtlog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.Mutex
	log zerolog.Logger
)

func init() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
		With().Timestamp().Str("component", "pthread").Logger()
}

// SetOutput redirects all future log records to w, for tests that want to
// assert on manager/lifecycle logging without touching stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(w).With().Timestamp().Str("component", "pthread").Logger()
}

// SetLevel adjusts the minimum level that is actually written, mirroring
// vlog's Configure(Level(...)) option.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(level)
}

func logger() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return log
}

// Debugf logs a high-frequency, hot-path event (spinlock backoff,
// individual wait-queue enqueue/dequeue) that should compile out of
// production verbosity.
func Debugf(format string, args ...any) {
	logger().Debug().Msgf(format, args...)
}

// Infof logs a lifecycle transition: create, exit, join, detach, free.
func Infof(format string, args ...any) {
	logger().Info().Msgf(format, args...)
}

// Warnf logs a recoverable, user-correctable condition.
func Warnf(format string, args ...any) {
	logger().Warn().Msgf(format, args...)
}

// Errorf logs a condition the caller could not have anticipated locally,
// such as a manager-side kernel call failing.
func Errorf(format string, args ...any) {
	logger().Error().Msgf(format, args...)
}
