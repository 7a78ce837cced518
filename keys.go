// Copyright 2016 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pthread

import "sync"

// keysMax bounds the number of thread-specific-data keys a process may
// have live at once (spec §4.10 "a bounded number of keys, per
// implementation-defined limit"), mirroring PTHREAD_KEYS_MAX.
const keysMax = 1024

// Key identifies one thread-specific-data slot, created by KeyCreate and
// indexed by every Thread's specific array (spec §4.10).
type Key int32

type keySlot struct {
	inUse      bool
	destructor func(value any)
}

var (
	keysMu sync.Mutex
	keys   [keysMax]keySlot
)

// KeyCreate allocates a new thread-specific-data key. If destructor is
// non-nil, it is invoked on a thread's non-nil value for this key when
// that thread exits (spec §4.10 "destructor invocation on exit").
func KeyCreate(destructor func(value any)) (Key, error) {
	keysMu.Lock()
	defer keysMu.Unlock()
	for i := range keys {
		if !keys[i].inUse {
			keys[i] = keySlot{inUse: true, destructor: destructor}
			return Key(i), nil
		}
	}
	return -1, newErr("pthread_key_create", ErrAgain)
}

// KeyDelete releases key. It does not run any thread's destructor and does
// not clear any thread's stored value (spec §4.10 pthread_key_delete).
func KeyDelete(key Key) error {
	keysMu.Lock()
	defer keysMu.Unlock()
	if key < 0 || int(key) >= keysMax || !keys[key].inUse {
		return newErr("pthread_key_delete", ErrInvalid)
	}
	keys[key] = keySlot{}
	return nil
}

// SetSpecific stores value in t's slot for key (spec §4.10
// pthread_setspecific).
func (t *Thread) SetSpecific(key Key, value any) error {
	if key < 0 || int(key) >= keysMax {
		return newErr("pthread_setspecific", ErrInvalid)
	}
	t.mu.acquire()
	t.specific[key] = value
	t.mu.release()
	return nil
}

// GetSpecific returns t's stored value for key, or nil if none was set
// (spec §4.10 pthread_getspecific).
func (t *Thread) GetSpecific(key Key) any {
	if key < 0 || int(key) >= keysMax {
		return nil
	}
	t.mu.acquire()
	defer t.mu.release()
	return t.specific[key]
}

// runKeyDestructors implements spec §4.10's exit-time destructor pass: a
// single sweep of every key with a non-nil value and a registered
// destructor, clearing the slot before invoking it. Spec §4.10 is explicit
// that "a single pass is specified (no iteration until quiescent)," unlike
// POSIX's own implementation-defined iteration allowance, so a destructor
// that calls SetSpecific on its way out does not get a second pass.
func (t *Thread) runKeyDestructors() {
	keysMu.Lock()
	snapshot := keys
	keysMu.Unlock()

	for i, slot := range snapshot {
		if !slot.inUse || slot.destructor == nil {
			continue
		}
		t.mu.acquire()
		value := t.specific[i]
		t.specific[i] = nil
		t.mu.release()
		if value != nil {
			slot.destructor(value)
		}
	}
}
