package succession

import (
	"context"
	"errors"
	"iter"
	"time"
)

// Iterator walks a Succession from the point at which it was created. Iterators are stateful and should
// not be shared across goroutines; create one per consumer instead.
type Iterator[T any] struct {
	prelude []T      // unconsumed prelude values
	pos     *link[T] // the next link to read; nil once the Succession is known to be closed
	timeout time.Duration
	err     error // the error that stopped the last All loop
}

func newIterator[T any](prelude []T, pos *link[T], timeout time.Duration) *Iterator[T] {
	return &Iterator[T]{prelude: prelude, pos: pos, timeout: timeout}
}

// Next returns the next value, waiting up to the timeout the iterator was created with.
// See NextTimeout.
func (it *Iterator[T]) Next() (T, error) {
	return it.NextTimeout(it.timeout)
}

// NextTimeout returns the next value in the sequence.
//   - Returns (<value>, nil) when a value is available.
//   - Returns (zero, ErrDone) once the Succession is closed and exhausted. This is terminal.
//   - With a zero timeout, returns (zero, ErrDone) if no value is available yet. This is not terminal: a
//     later call may return a value once more are pushed.
//   - With a positive timeout, returns (zero, ErrTimeout) if no value arrived in time.
//   - With a negative timeout (Forever), blocks until a value is pushed or the Succession is closed.
func (it *Iterator[T]) NextTimeout(timeout time.Duration) (T, error) {
	if v, ok := it.shift(); ok {
		return v, nil
	}

	var none T
	if it.pos == nil {
		return none, ErrDone
	}
	v, next, err := it.pos.await(timeout)
	switch {
	case err == nil:
		it.pos = next
		return v, nil
	case err == errClosed:
		it.pos = nil
		return none, ErrDone
	case err == ErrTimeout && timeout == 0:
		return none, ErrDone
	default:
		return none, err
	}
}

// NextContext returns the next value, blocking until one is pushed, the Succession is closed (ErrDone), or
// ctx is done (ctx.Err()). The iterator position is unchanged when ctx ends the wait.
func (it *Iterator[T]) NextContext(ctx context.Context) (T, error) {
	if v, ok := it.shift(); ok {
		return v, nil
	}

	var none T
	if it.pos == nil {
		return none, ErrDone
	}
	v, next, err := it.pos.awaitContext(ctx)
	switch {
	case err == nil:
		it.pos = next
		return v, nil
	case err == errClosed:
		it.pos = nil
		return none, ErrDone
	default:
		return none, err
	}
}

// shift pops the next prelude value. The prelude is drained before the chain is touched.
func (it *Iterator[T]) shift() (T, bool) {
	if len(it.prelude) == 0 {
		var none T
		return none, false
	}
	v := it.prelude[0]
	it.prelude = it.prelude[1:]
	if len(it.prelude) == 0 {
		it.prelude = nil
	}
	return v, true
}

// Consume calls callback with each value until the Succession is exhausted, ctx is done, or callback
// returns an error. Returns nil when the Succession is exhausted.
func (it *Iterator[T]) Consume(ctx context.Context, callback func(context.Context, T) error) error {
	for {
		val, err := it.NextContext(ctx)
		if err == ErrDone {
			return nil
		} else if err != nil {
			return err
		}
		if err := callback(ctx, val); err != nil {
			return err
		}
	}
}

// All returns an iterator over the remaining values using the iterator's timeout. The loop ends on
// ErrDone or ErrTimeout; Err reports which stopped it.
func (it *Iterator[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		it.err = nil
		for {
			v, err := it.Next()
			if err != nil {
				if !errors.Is(err, ErrDone) {
					it.err = err
				}
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Err returns the error that stopped the most recent All loop, or nil if it ended normally.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Collect drains the iterator into a slice using the iterator's timeout.
func (it *Iterator[T]) Collect() ([]T, error) {
	var ret []T
	for v := range it.All() {
		ret = append(ret, v)
	}
	return ret, it.Err()
}
