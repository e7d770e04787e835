package event_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/navgraph/pkg/navgraph/event"
)

func counting(n *atomic.Int32) event.Handler {
	return event.HandlerFunc(func(context.Context, event.Event) error {
		n.Add(1)
		return nil
	})
}

func TestBus_Subscribe(t *testing.T) {
	bus := event.NewBus(event.BusConfig{BufferSize: 10})
	defer bus.Close()

	var received atomic.Int32
	sub := bus.Subscribe([]string{"navigation.end"}, counting(&received))
	defer sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), event.New("navigation.end", "router", 1)))
	require.NoError(t, bus.Publish(context.Background(), event.New("navigation.start", "router", 1)))

	assert.Eventually(t, func() bool { return received.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), received.Load())
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()

	var received atomic.Int32
	sub := bus.SubscribeAll(counting(&received))
	defer sub.Unsubscribe()

	for _, typ := range []string{"a", "b", "c"} {
		require.NoError(t, bus.Publish(context.Background(), event.New(typ, "test", 0)))
	}
	assert.Eventually(t, func() bool { return received.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestBus_SynchronousOrdering(t *testing.T) {
	bus := event.NewBus(event.BusConfig{Synchronous: true})
	defer bus.Close()

	var mu sync.Mutex
	var order []string
	record := func(name string) event.Handler {
		return event.HandlerFunc(func(_ context.Context, evt event.Event) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name+":"+evt.Type())
			return nil
		})
	}

	bus.SubscribeAll(record("first"))
	bus.Subscribe([]string{"x"}, record("second"))
	bus.SubscribeAll(record("third"))

	require.NoError(t, bus.Publish(context.Background(), event.New("x", "test", 0)))
	require.NoError(t, bus.Publish(context.Background(), event.New("y", "test", 0)))

	assert.Equal(t, []string{"first:x", "second:x", "third:x", "first:y", "third:y"}, order)
}

func TestBus_PauseResume(t *testing.T) {
	bus := event.NewBus(event.BusConfig{Synchronous: true})
	defer bus.Close()

	var received atomic.Int32
	sub := bus.SubscribeAll(counting(&received))

	sub.Pause()
	assert.True(t, sub.IsPaused())
	require.NoError(t, bus.Publish(context.Background(), event.New("x", "test", 0)))
	assert.Equal(t, int32(0), received.Load())

	sub.Resume()
	assert.False(t, sub.IsPaused())
	require.NoError(t, bus.Publish(context.Background(), event.New("x", "test", 0)))
	assert.Equal(t, int32(1), received.Load())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := event.NewBus(event.BusConfig{Synchronous: true})
	defer bus.Close()

	var received atomic.Int32
	sub := bus.Subscribe([]string{"x"}, counting(&received))
	sub.Unsubscribe()
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), event.New("x", "test", 0)))
	assert.Equal(t, int32(0), received.Load())
}

func TestBus_OnError(t *testing.T) {
	boom := errors.New("boom")
	var reported atomic.Value
	bus := event.NewBus(event.BusConfig{
		Synchronous: true,
		OnError: func(_ event.Event, id string, err error) {
			reported.Store(id + ":" + err.Error())
		},
	})
	defer bus.Close()

	bus.SubscribeAll(event.HandlerFunc(func(context.Context, event.Event) error { return boom }))
	require.NoError(t, bus.Publish(context.Background(), event.New("x", "test", 0)))
	assert.Equal(t, "sub-1:boom", reported.Load())
}

func TestBus_NonBlockingDrops(t *testing.T) {
	release := make(chan struct{})
	var dropped atomic.Int32
	bus := event.NewBus(event.BusConfig{
		BufferSize:  1,
		NonBlocking: true,
		OnDrop:      func(event.Event, string) { dropped.Add(1) },
	})
	defer bus.Close()

	bus.SubscribeAll(event.HandlerFunc(func(context.Context, event.Event) error {
		<-release
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(), event.New("x", "test", i)))
	}
	close(release)
	assert.Positive(t, dropped.Load())
}

func TestBus_Closed(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), event.New("x", "test", 0))
	assert.ErrorIs(t, err, event.ErrBusClosed)
	assert.Nil(t, bus.SubscribeAll(event.HandlerFunc(func(context.Context, event.Event) error { return nil })))
}
