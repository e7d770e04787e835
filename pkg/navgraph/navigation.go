package navgraph

import (
	"context"
	"sync"
)

// Navigation is the caller's handle on a requested navigation. It settles
// once: true when the final destination committed, false when it was
// cancelled or skipped, or with an error. Redirects keep the same handle.
type Navigation struct {
	id uint64

	once sync.Once
	done chan struct{}
	ok   bool
	err  error
}

func newNavigation(id uint64) *Navigation {
	return &Navigation{id: id, done: make(chan struct{})}
}

// ID returns the id of the first transition of the navigation.
func (n *Navigation) ID() uint64 { return n.id }

// Done is closed when the navigation settled.
func (n *Navigation) Done() <-chan struct{} { return n.done }

// Result returns the outcome. It is only meaningful after Done is closed.
func (n *Navigation) Result() (bool, error) {
	select {
	case <-n.done:
		return n.ok, n.err
	default:
		return false, nil
	}
}

// Wait blocks until the navigation settles or ctx is done. Cancelling ctx
// does not stop the navigation.
func (n *Navigation) Wait(ctx context.Context) (bool, error) {
	select {
	case <-n.done:
		return n.ok, n.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// resolve settles the navigation. Later calls are ignored.
func (n *Navigation) resolve(ok bool) {
	n.once.Do(func() {
		n.ok = ok
		close(n.done)
	})
}

// reject settles the navigation with err. Later calls are ignored.
func (n *Navigation) reject(err error) {
	n.once.Do(func() {
		n.err = err
		close(n.done)
	})
}
