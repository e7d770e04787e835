// Package event provides the event model and pub/sub bus used by the
// navgraph router.
//
// # Events
//
// All events implement Event. Use BaseEvent[T] for type-safe payloads:
//
//	evt := event.New("navigation.end", "router", payload)
//
// Related events share a correlation ID. A root event correlates to itself;
// NewFromParent inherits the parent's correlation and records the parent as
// the cause:
//
//	child := event.NewFromParent(parent, "navigation.cancel", "router", p)
//	// child.CorrelationID() == parent.CorrelationID()
//	// child.CausationID() == parent.ID()
//
// # Bus
//
// LocalBus fans events out to subscribers. By default each subscription has
// a buffered channel and its own delivery goroutine, so handlers never block
// the publisher. Set BusConfig.Synchronous to deliver on the publishing
// goroutine instead, which gives deterministic ordering in tests and
// single-threaded hosts:
//
//	bus := event.NewBus(event.BusConfig{Synchronous: true})
//	sub := bus.Subscribe([]string{"navigation.end"}, handler)
//	defer sub.Unsubscribe()
//
//	bus.Publish(ctx, evt)
package event
