package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	eventiface "github.com/weisyn/coprocessor/pkg/interfaces/infrastructure/event"
)

type testEvent struct{ n int }

func (testEvent) Type() eventiface.EventType { return "test.event" }
func (e testEvent) Data() interface{}        { return e.n }

func TestEventBus_SubscribePublish(t *testing.T) {
	bus := New(0)

	var got []int
	require.NoError(t, bus.Subscribe("test.event", func(n int) { got = append(got, n) }))
	assert.True(t, bus.HasCallback("test.event"))

	bus.Publish("test.event", 1)
	bus.PublishEvent(testEvent{n: 2})

	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, []interface{}{1, 2}, bus.GetEventHistory("test.event"))
}

func TestEventBus_Async(t *testing.T) {
	bus := New(0)

	var mu sync.Mutex
	var got []int
	require.NoError(t, bus.SubscribeAsync("async", func(n int) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	}, true))

	for i := 0; i < 5; i++ {
		bus.Publish("async", i)
	}
	bus.WaitAsync()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestEventBus_HistoryBounded(t *testing.T) {
	bus := New(2)
	for i := 0; i < 5; i++ {
		bus.Publish("h", i)
	}
	assert.Equal(t, []interface{}{3, 4}, bus.GetEventHistory("h"))
	assert.Nil(t, bus.GetEventHistory("missing"))
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := New(0)
	calls := 0
	handler := func() { calls++ }
	require.NoError(t, bus.Subscribe("u", handler))
	require.NoError(t, bus.Unsubscribe("u", handler))
	bus.Publish("u")
	assert.Zero(t, calls)
	assert.False(t, bus.HasCallback("u"))
}

func TestModule_ProvidesEventBus(t *testing.T) {
	var bus eventiface.EventBus
	app := fxtest.New(t, Module(), fx.Populate(&bus))
	app.RequireStart()
	require.NotNil(t, bus)
	app.RequireStop()
}
