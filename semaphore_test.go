// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import (
	"testing"
	"time"
)

func TestSemaphoreInitRejectsNegative(t *testing.T) {
	if _, err := NewSemaphore(-1); !isCode(err, ErrInvalid) {
		t.Fatalf("expected EINVAL for a negative initial value, got %v", err)
	}
}

func TestSemaphoreTryWait(t *testing.T) {
	s, err := NewSemaphore(1)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := s.TryWait()
	if err != nil || !ok {
		t.Fatalf("TryWait on a positive semaphore: ok=%v err=%v", ok, err)
	}
	ok, err = s.TryWait()
	if err != nil || ok {
		t.Fatalf("TryWait on a zero semaphore: ok=%v err=%v", ok, err)
	}
	if v := s.Value(); v != 0 {
		t.Fatalf("Value: got %d, want 0", v)
	}
}

func TestSemaphoreWaitBlocksUntilPost(t *testing.T) {
	self := newTestThread(t)
	s, _ := NewSemaphore(0)
	done := make(chan struct{})
	go func() {
		if err := s.Wait(self); err != nil {
			t.Errorf("Wait: %v", err)
		}
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Wait returned before Post")
	case <-time.After(30 * time.Millisecond):
	}
	s.Post()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Post")
	}
}

func TestSemaphoreTimedWaitTimesOut(t *testing.T) {
	self := newTestThread(t)
	s, _ := NewSemaphore(0)
	err := s.TimedWait(self, time.Now().Add(30*time.Millisecond))
	if !isCode(err, ErrTimedOut) {
		t.Fatalf("expected ETIMEDOUT, got %v", err)
	}
}

func TestSemaphoreAsCountingBarrier(t *testing.T) {
	const n = 10
	s, _ := NewSemaphore(0)
	for i := 0; i < n; i++ {
		go func() { s.Post() }()
	}
	self := newTestThread(t)
	for i := 0; i < n; i++ {
		if err := s.Wait(self); err != nil {
			t.Fatalf("Wait #%d: %v", i, err)
		}
	}
	ok, _ := s.TryWait()
	if ok {
		t.Fatal("semaphore should be exhausted after n waits on n posts")
	}
}
