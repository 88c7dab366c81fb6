package state

// Package state holds the injectable reactive containers that track the
// current identity and display preference. Nothing here is a package-level
// singleton; callers construct stores and pass them where needed.

import "sync"

// Value is a concurrency-safe observable container. Subscribers receive the
// current value immediately on subscription and every subsequent Set.
type Value[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[int]func(T)
	nextSub int
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{current: initial, subs: make(map[int]func(T))}
}

func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Set replaces the current value and notifies subscribers. Callbacks run
// outside the lock so subscribers may call back into the container.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.current = val
	fns := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(val)
	}
}

// SetIf installs val only when ok still holds. The check runs inside the
// container's write section, so no other write can land between a passing
// check and the install. Callbacks run outside the lock, like Set. Returns
// whether the value was installed.
func (v *Value[T]) SetIf(val T, ok func() bool) bool {
	v.mu.Lock()
	if !ok() {
		v.mu.Unlock()
		return false
	}
	v.current = val
	fns := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(val)
	}
	return true
}

// Subscribe registers fn and invokes it once with the current value. The
// returned function removes the subscription.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	cur := v.current
	v.mu.Unlock()

	fn(cur)
	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}
