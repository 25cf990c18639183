package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	e := NewEmitter[int]()
	var got []string
	e.Subscribe(func(v int) { got = append(got, "a") })
	e.Subscribe(func(v int) { got = append(got, "b") })
	e.Fire(1)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestEmitterUnsubscribe(t *testing.T) {
	e := NewEmitter[int]()
	var got []int
	unsubscribe := e.Subscribe(func(v int) { got = append(got, v) })
	e.Fire(1)
	unsubscribe()
	unsubscribe()
	e.Fire(2)
	assert.Equal(t, []int{1}, got)
}

func TestEmitterDispose(t *testing.T) {
	e := NewEmitter[int]()
	var got []int
	e.Subscribe(func(v int) { got = append(got, v) })
	e.Dispose()
	e.Dispose()
	e.Fire(1)
	e.Subscribe(func(v int) { got = append(got, v) })()
	e.Fire(2)
	assert.Len(t, got, 0)
}

func TestEmitterListenerCanFireAgain(t *testing.T) {
	e := NewEmitter[int]()
	var got []int
	e.Subscribe(func(v int) {
		got = append(got, v)
		if v == 1 {
			e.Fire(2)
		}
	})
	e.Fire(1)
	assert.Equal(t, []int{1, 2}, got)
}
