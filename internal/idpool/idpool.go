// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package idpool allocates and recycles small non-negative integer ids.
//
// The original clone()-based thread managers (spec §4.4) keep a bitmap of
// fixed-size stack segments and hand out the lowest free segment on each
// thread creation, recovering a thread's descriptor later by address
// arithmetic on that segment. Go's goroutines carry no such addressable
// segment, so there is nothing to bitmap — but Create (lifecycle.go) still
// gives each new thread a small, stable, reusable identifier (the
// "kernel task id" slot of the thread descriptor, spec §3), and freed ids
// should be recycled the same way a freed stack segment's bit is cleared
// and reused by the next CREATE. idpool keeps the free ids in a btree.BTreeG
// ordered set rather than a Go map so "allocate the lowest currently free
// id" is a single Min() call instead of an unbounded scan, which is the
// shape its bitmap-scan-for-the-first-free-bit ancestor had.
package idpool

import "github.com/google/btree"

// Pool hands out non-negative int32 ids, recycling freed ones, always
// preferring the lowest free value the same way the original stack-segment
// bitmap prefers the first free bit.
type Pool struct {
	free *btree.BTreeG[int32]
	next int32
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{
		free: btree.NewG(32, func(a, b int32) bool { return a < b }),
	}
}

// Acquire returns the lowest available id, growing the pool if none are
// free.
func (p *Pool) Acquire() int32 {
	if p.free.Len() > 0 {
		min, _ := p.free.Min()
		p.free.Delete(min)
		return min
	}
	id := p.next
	p.next++
	return id
}

// Release returns id to the pool for reuse.
func (p *Pool) Release(id int32) {
	p.free.ReplaceOrInsert(id)
}
