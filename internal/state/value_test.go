package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValue_GetSet(t *testing.T) {
	v := NewValue("a")
	assert.Equal(t, "a", v.Get())

	v.Set("b")
	assert.Equal(t, "b", v.Get())
}

func TestValue_SubscribeReceivesCurrentImmediately(t *testing.T) {
	v := NewValue(41)

	var seen []int
	unsub := v.Subscribe(func(x int) { seen = append(seen, x) })
	defer unsub()

	assert.Equal(t, []int{41}, seen)

	v.Set(42)
	assert.Equal(t, []int{41, 42}, seen)
}

func TestValue_Unsubscribe(t *testing.T) {
	v := NewValue(0)

	var seen []int
	unsub := v.Subscribe(func(x int) { seen = append(seen, x) })
	unsub()

	v.Set(1)
	assert.Equal(t, []int{0}, seen)
}

func TestValue_MultipleSubscribers(t *testing.T) {
	v := NewValue("x")

	var a, b int
	defer v.Subscribe(func(string) { a++ })()
	defer v.Subscribe(func(string) { b++ })()

	v.Set("y")
	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestValue_SetIf(t *testing.T) {
	v := NewValue("a")

	var seen []string
	defer v.Subscribe(func(s string) { seen = append(seen, s) })()

	assert.False(t, v.SetIf("b", func() bool { return false }))
	assert.Equal(t, "a", v.Get())

	assert.True(t, v.SetIf("b", func() bool { return true }))
	assert.Equal(t, "b", v.Get())

	// A rejected write never notifies.
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestValue_SetIfCheckAndWriteAreAtomic(t *testing.T) {
	v := NewValue("initial")

	entered := make(chan struct{})
	verdict := make(chan bool)
	stale := make(chan bool)
	go func() {
		stale <- v.SetIf("stale", func() bool {
			close(entered)
			return <-verdict
		})
	}()
	<-entered

	installed := make(chan struct{})
	go func() {
		v.Set("newer")
		close(installed)
	}()

	// While the conditional write is deciding, no other write may land.
	select {
	case <-installed:
		t.Fatal("Set completed while a conditional write held the container")
	case <-time.After(20 * time.Millisecond):
	}

	verdict <- false
	assert.False(t, <-stale)
	<-installed
	assert.Equal(t, "newer", v.Get())
}
