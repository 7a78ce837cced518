// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command threadbench is a small smoke-test driver for the pthread
// package: it creates a pool of worker threads that contend on a mutex
// and a condition variable and drain a bounded buffer through a
// semaphore, in the shape of the teacher library's own single-purpose
// cmd/linewrap and cmd/flagvar demo commands rather than a reimplementation
// of the original proxy.c test harness spec.md's Non-goals excludes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/userthreads/pthread"
	"github.com/userthreads/pthread/cmd/pflagvar"
	"github.com/userthreads/pthread/internal/attrflag"
	"github.com/userthreads/pthread/internal/rtlog"
)

// config holds the flags registered via pflagvar.RegisterFlagsInStruct,
// colocating each flag with the field it drives the same way the teacher
// library's own struct-tagged flag registration is meant to (cmd/flagvar's
// package doc: "avoid large numbers of global variables").
type config struct {
	Workers    int           `cmdline:"workers,4,number of worker threads to create"`
	Items      int           `cmdline:"items,20,number of items each worker pushes through the buffer"`
	BufferSize int           `cmdline:"buffer,3,'capacity of the bounded buffer, enforced with a semaphore'"`
	Timeout    time.Duration `cmdline:"timeout,10s,overall deadline before the run is canceled"`
}

func main() {
	cfg := config{}
	pfs := pflag.NewFlagSet("threadbench", pflag.ExitOnError)
	if err := pflagvar.RegisterFlagsInStruct(pfs, "cmdline", &cfg, nil, nil); err != nil {
		fmt.Fprintln(os.Stderr, "threadbench:", err)
		os.Exit(1)
	}
	detach := &attrflag.DetachState{Value: pthread.CreateJoinable}
	pfs.Var(detach, "worker-detachstate", "detachstate for worker threads: joinable or detached")
	verbose := pfs.BoolP("verbose", "v", false, "enable debug-level logging")
	if err := pfs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if *verbose {
		rtlog.SetLevel(0) // zerolog.DebugLevel
	}

	if err := run(cfg, detach.Value); err != nil {
		fmt.Fprintln(os.Stderr, "threadbench:", err)
		os.Exit(1)
	}
}

// run demonstrates Create/Join, Mutex, Cond and Semaphore together: a
// fixed pool of producer threads each push cfg.Items values into a
// pthread.Semaphore-bounded ring buffer guarded by a pthread.Mutex and
// pthread.Cond, while a single consumer thread drains it, all created
// through the real pthread.Thread API rather than bare goroutines so the
// demo actually exercises the package it ships alongside.
func run(cfg config, detachState pthread.DetachState) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	main := pthread.MainThread()
	mu := pthread.NewMutex(&pthread.MutexAttr{Kind: pthread.MutexFast})
	notEmpty := pthread.NewCond(nil)
	notFull := pthread.NewCond(nil)
	slots, err := pthread.NewSemaphore(int32(cfg.BufferSize))
	if err != nil {
		return err
	}

	var buf []int
	produced := 0
	done := false

	consumer, err := main.Create(&pthread.ThreadAttr{Name: "consumer"}, func(self *pthread.Thread, _ any) any {
		consumed := 0
		for {
			mu.Lock(self)
			for len(buf) == 0 && !done {
				if err := notEmpty.Wait(self, mu); err != nil {
					return consumed
				}
			}
			if len(buf) == 0 && done {
				mu.Unlock(self)
				return consumed
			}
			v := buf[0]
			buf = buf[1:]
			consumed++
			mu.Unlock(self)
			notFull.Signal()
			slots.Post()
			rtlog.Debugf("consumer: drained %d", v)
		}
	}, nil)
	if err != nil {
		return err
	}

	// A single supervisor thread performs every pthread.Join: Join parks
	// its caller on that caller's own per-descriptor wake channel, so one
	// *Thread cannot legally be the caller of two concurrent joins. Fanning worker *creation* out across an errgroup is
	// still safe and genuinely concurrent: Create never blocks on self's
	// own channels, only on a fresh per-call completion channel.
	workers := make([]*pthread.Thread, cfg.Workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		w := w
		g.Go(func() error {
			deadline, _ := gctx.Deadline()
			worker, err := main.Create(&pthread.ThreadAttr{
				Name:        fmt.Sprintf("worker-%d", w),
				DetachState: detachState,
			}, func(self *pthread.Thread, _ any) any {
				for i := 0; i < cfg.Items; i++ {
					if err := slots.TimedWait(self, deadline); err != nil {
						return err
					}
					mu.Lock(self)
					buf = append(buf, w*cfg.Items+i)
					produced++
					mu.Unlock(self)
					notEmpty.Signal()
				}
				return nil
			}, nil)
			if err != nil {
				return err
			}
			workers[w] = worker
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if detachState == pthread.CreateDetached {
		// Nothing to join; give detached workers a moment to finish
		// before declaring the buffer empty below.
		time.Sleep(cfg.Timeout / 4)
	} else {
		supervisor, err := main.Create(&pthread.ThreadAttr{Name: "join-supervisor"}, func(self *pthread.Thread, _ any) any {
			for _, w := range workers {
				if _, err := self.Join(w); err != nil {
					return err
				}
			}
			return nil
		}, nil)
		if err != nil {
			return err
		}
		if retval, err := main.Join(supervisor); err != nil {
			return err
		} else if retval != nil {
			if joinErr, ok := retval.(error); ok {
				return joinErr
			}
		}
	}

	mu.Lock(main)
	done = true
	mu.Unlock(main)
	notEmpty.Broadcast()

	consumed, err := main.Join(consumer)
	if err != nil {
		return err
	}
	rtlog.Infof("threadbench: produced=%d consumed=%v", produced, consumed)
	return nil
}
