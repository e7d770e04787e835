// Package batch provides a reentrant fan-out/fan-in join counter.
//
// A Batch is a chain of links. Each link owns a counter and a callback that
// fires once the counter drains to zero. Push registers outstanding work on a
// link and every link after it; Pop releases it. ContinueWith appends a link
// whose callback only runs after everything registered up to that point,
// including work registered by earlier callbacks, has been released.
//
// Unlike sync.WaitGroup, new work may join after waiting has begun, which is
// what lets a pipeline phase discover its participants while it runs:
//
//	batch.Start(func(b *batch.Batch) {
//		for _, child := range children {
//			b.Push()
//			go func() {
//				defer b.Pop()
//				child.Work()
//			}()
//		}
//	}).ContinueWith(func(*batch.Batch) {
//		fmt.Println("all children done")
//	}).Start()
//
// Push and Pop may be called from any goroutine. Callbacks run on the
// goroutine whose Pop drained the counter and never under the internal lock.
// A Push without a matching Pop parks every later link forever.
package batch

import "sync"

// Func is a link callback. It receives the link that fired so it can
// register further work on it.
type Func func(b *Batch)

// chain holds state shared by every link of one Batch chain.
type chain struct {
	mu sync.Mutex
}

// Batch is one link of a join chain.
type Batch struct {
	c     *chain
	head  *Batch
	next  *Batch
	stack int
	cb    Func
	done  bool
}

// Start creates the head link of a new chain with the given callback.
// Nothing runs until Start is called on the returned link (or any link
// appended to it).
func Start(cb Func) *Batch {
	b := &Batch{c: &chain{}, cb: cb}
	b.head = b
	return b
}

// Push registers one unit of outstanding work on this link and every link
// after it.
func (b *Batch) Push() {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	for cur := b; cur != nil; cur = cur.next {
		cur.stack++
	}
}

// Pop releases one unit of work on this link and every link after it.
// Links whose counter reaches zero fire their callbacks in chain order.
func (b *Batch) Pop() {
	for cur := b; cur != nil; {
		b.c.mu.Lock()
		cur.stack--
		var cb Func
		if cur.stack == 0 && cur.cb != nil {
			cb = cur.cb
			cur.cb = nil
		}
		b.c.mu.Unlock()

		if cb != nil {
			cb(cur)
			b.c.mu.Lock()
			cur.done = true
			b.c.mu.Unlock()
		}

		b.c.mu.Lock()
		cur = cur.next
		b.c.mu.Unlock()
	}
}

// ContinueWith appends a link after the tail of the chain and returns it.
// The new link starts with the tail's outstanding count, so its callback
// cannot fire before every earlier link has drained.
func (b *Batch) ContinueWith(cb Func) *Batch {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()

	tail := b
	for tail.next != nil {
		tail = tail.next
	}
	next := &Batch{
		c:     b.c,
		head:  b.head,
		stack: tail.stack,
		cb:    cb,
	}
	tail.next = next
	return next
}

// Start kicks off the chain with a push/pop pair on its head and returns b.
func (b *Batch) Start() *Batch {
	b.head.Push()
	b.head.Pop()
	return b
}

// Done reports whether this link's callback has run to completion.
func (b *Batch) Done() bool {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	return b.done
}

// Pending returns the outstanding work count of this link.
func (b *Batch) Pending() int {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	return b.stack
}
