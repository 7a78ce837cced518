// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import (
	"testing"
	"time"
)

func TestCreateJoinReturnsValue(t *testing.T) {
	main := MainThread()
	th, err := main.Create(nil, func(self *Thread, arg any) any {
		return arg.(int) * 2
	}, 21)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	retval, err := main.Join(th)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if retval != 42 {
		t.Fatalf("Join returned %v, want 42", retval)
	}
}

func TestJoinOnSelfIsDeadlock(t *testing.T) {
	main := MainThread()
	if _, err := main.Join(main); !isCode(err, ErrDeadlock) {
		t.Fatalf("expected EDEADLK joining self, got %v", err)
	}
}

func TestDoubleJoinFails(t *testing.T) {
	main := MainThread()
	release := make(chan struct{})
	th, err := main.Create(nil, func(self *Thread, arg any) any {
		<-release
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	second := newTestThread(t)
	go func() {
		time.Sleep(20 * time.Millisecond)
		if _, err := second.Join(th); err == nil {
			t.Error("expected the second joiner to be rejected")
		}
		close(release)
	}()
	if _, err := main.Join(th); err != nil {
		t.Fatalf("first Join: %v", err)
	}
}

func TestJoinDetachedThreadFails(t *testing.T) {
	main := MainThread()
	started := make(chan struct{})
	finish := make(chan struct{})
	th, err := main.Create(&ThreadAttr{DetachState: CreateDetached}, func(self *Thread, arg any) any {
		close(started)
		<-finish
		return nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	<-started
	if _, err := main.Join(th); !isCode(err, ErrInvalid) {
		close(finish)
		t.Fatalf("expected EINVAL joining a detached thread, got %v", err)
	}
	close(finish)
}

func TestDetachAfterExitReclaimsImmediately(t *testing.T) {
	main := MainThread()
	th, err := main.Create(nil, func(self *Thread, arg any) any { return nil }, nil)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		th.mu.acquire()
		exited := th.exited
		th.mu.release()
		if exited || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := main.Detach(th); err != nil {
		t.Fatalf("Detach: %v", err)
	}
}

func TestWaitReturnsOnceWorkersExit(t *testing.T) {
	main := MainThread()
	const n = 5
	for i := 0; i < n; i++ {
		if _, err := main.Create(&ThreadAttr{DetachState: CreateDetached}, func(self *Thread, arg any) any {
			time.Sleep(10 * time.Millisecond)
			return nil
		}, nil); err != nil {
			t.Fatal(err)
		}
	}
	done := make(chan struct{})
	go func() {
		Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after every detached worker exited")
	}
}
