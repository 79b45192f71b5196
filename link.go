package succession

import (
	"context"
	"time"
)

// link is a single-assignment cell in the chain. It is written exactly once, either with a value and the
// next link, or closed. Waiters observe the write through the closure of ready.
type link[T any] struct {
	value T             // the value (zero until ready)
	next  *link[T]      // the next link (nil until ready, and nil forever if closed)
	ready chan struct{} // a channel whose closure marks readiness
}

func newLink[T any]() *link[T] {
	return &link[T]{ready: make(chan struct{})}
}

// resolve stores v, allocates the next pending link, and wakes every waiter.
func (l *link[T]) resolve(v T) *link[T] {
	l.mustBePending()
	next := newLink[T]()
	l.value = v
	l.next = next
	close(l.ready)
	return next
}

// close marks the link as the end of the chain and wakes every waiter.
func (l *link[T]) close() {
	l.mustBePending()
	close(l.ready)
}

func (l *link[T]) mustBePending() {
	select {
	case <-l.ready:
		panic("succession: link already written")
	default:
	}
}

// poll reports whether the link has been written without blocking.
func (l *link[T]) poll() bool {
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}

// load must only be called once ready is closed.
func (l *link[T]) load() (T, *link[T], error) {
	if l.next == nil {
		var none T
		return none, nil, errClosed
	}
	return l.value, l.next, nil
}

// await waits for the link to be written. A negative timeout waits forever, zero never blocks.
func (l *link[T]) await(timeout time.Duration) (T, *link[T], error) {
	if l.poll() {
		return l.load()
	}

	var none T
	switch {
	case timeout == 0:
		return none, nil, ErrTimeout
	case timeout < 0:
		<-l.ready
		return l.load()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-l.ready:
		return l.load()
	case <-timer.C:
		return none, nil, ErrTimeout
	}
}

// awaitContext waits for the link to be written or ctx to be done.
func (l *link[T]) awaitContext(ctx context.Context) (T, *link[T], error) {
	if l.poll() {
		return l.load()
	}

	var none T
	if err := ctx.Err(); err != nil {
		return none, nil, err
	}
	select {
	case <-l.ready:
		return l.load()
	case <-ctx.Done():
		return none, nil, ctx.Err()
	}
}
