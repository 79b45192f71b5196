// Package succession implements a concurrent, append-only sequence with a single writer and any number of
// independent readers.
//
// Readers each walk the sequence from the point they first observed it, in the same total order, optionally
// blocking until more values are pushed or the sequence is closed. History visible to new readers can be
// folded into a smaller prelude by a compression policy, which lets the garbage collector reclaim chain
// links that no reader still references.
package succession

import (
	"errors"
	"time"
)

// Forever is a timeout that waits indefinitely.
const Forever time.Duration = -1

// ErrDone is returned by Iterator.Next() when the underlying Succession is closed, or when a polling
// iterator (timeout zero) has consumed every value pushed so far.
var ErrDone = errors.New("no more items in iterator")

// ErrTimeout is returned by Iterator.Next() when no value arrived within a positive timeout. The iterator
// position is unchanged, so the call may be retried.
var ErrTimeout = errors.New("timed out waiting for next item")

// errClosed signals a closed link; it is always translated into ErrDone before reaching callers.
var errClosed = errors.New("succession closed")

// CompressFunc folds the committed history of a Succession into a replacement prelude.
//
// It receives a freshly allocated slice holding every value visible to a new iterator, oldest first, and
// may modify or return it. The returned slice is retained as the prelude and must not be mutated later.
//
// A CompressFunc runs while the Succession's lock is held: it must not block, and must not call back into
// the same Succession, or it will deadlock.
type CompressFunc[T any] func(items []T) []T

// Observer receives notifications about Succession mutations. Methods are called with the Succession's
// lock held, so implementations must be fast and must not call back into the Succession.
type Observer interface {
	// Pushed is called after a value is appended.
	Pushed()
	// Compacted is called after a compression pass replaced before items with after items.
	Compacted(before, after int)
	// Dropped is called after Drop discarded n items.
	Dropped(n int)
	// Closed is called after the Succession is closed.
	Closed()
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) Pushed()            {}
func (NopObserver) Compacted(int, int) {}
func (NopObserver) Dropped(int)        {}
func (NopObserver) Closed()            {}

var _ Observer = NopObserver{}
