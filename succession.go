package succession

import (
	"sync"
	"time"
)

// Succession allows a single writer to append values that any number of iterators read concurrently, each
// from the point it was created. Values are opaque and no copies are made: consumers should not mutate them.
//
// Push and Close may be called concurrently with iterator reads, but are meant for one writer. Calls are
// serialized by an internal lock, so the order of values is the order in which Push calls acquire it.
type Succession[T any] struct {
	mu      sync.Mutex
	prelude []T      // compacted history, replaced wholesale and never mutated
	root    *link[T] // the oldest link visible to new iterators
	cursor  *link[T] // the next unwritten link
	closed  bool

	compress CompressFunc[T]
	drop     bool
	observer Observer
}

// Option configures a Succession.
type Option[T any] func(*Succession[T])

// WithCompression runs fn over the visible history after every Push, replacing it with the result.
func WithCompression[T any](fn CompressFunc[T]) Option[T] {
	return func(s *Succession[T]) {
		s.compress = fn
	}
}

// WithDrop forgets all history, including any prelude, after every Push, so new iterators only see
// values pushed after their creation. Takes precedence over WithCompression.
func WithDrop[T any]() Option[T] {
	return func(s *Succession[T]) {
		s.drop = true
	}
}

// WithInitial seeds the prelude with values, as if they had already been pushed and compacted.
func WithInitial[T any](values ...T) Option[T] {
	return func(s *Succession[T]) {
		s.prelude = append([]T(nil), values...)
	}
}

// WithObserver registers o to be notified of mutations.
func WithObserver[T any](o Observer) Option[T] {
	return func(s *Succession[T]) {
		s.observer = o
	}
}

// New creates an empty Succession.
func New[T any](opts ...Option[T]) *Succession[T] {
	root := newLink[T]()
	s := &Succession[T]{
		root:     root,
		cursor:   root,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push appends v and then applies the configured compression, if any.
func (s *Succession[T]) Push(v T) {
	s.push(v, true)
}

// PushUncompressed appends v without applying the configured compression.
func (s *Succession[T]) PushUncompressed(v T) {
	s.push(v, false)
}

func (s *Succession[T]) push(v T, compress bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		panic("succession: push after close")
	}
	s.cursor = s.cursor.resolve(v)
	s.observer.Pushed()

	if !compress {
		return
	}
	if s.drop {
		s.dropLocked()
	} else if s.compress != nil {
		s.compressLocked(s.compress)
	}
}

// Close ends the Succession and wakes every waiting iterator. Close may only be called once.
func (s *Succession[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		panic("succession: already closed")
	}
	s.closed = true
	s.cursor.close()
	s.observer.Closed()
}

// Closed reports whether Close has been called.
func (s *Succession[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Iter returns an iterator over every visible value, which waits up to timeout for each new value.
// A zero timeout never blocks; Forever waits indefinitely.
func (s *Succession[T]) Iter(timeout time.Duration) *Iterator[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newIterator(s.prelude, s.root, timeout)
}

// Iterators returns n blocking iterators created from the same snapshot, so they all start at the same
// point even while values are being pushed.
func (s *Succession[T]) Iterators(n int) []*Iterator[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]*Iterator[T], n)
	for i := range ret {
		ret[i] = newIterator(s.prelude, s.root, Forever)
	}
	return ret
}

// Iterator returns an iterator over every visible value that blocks until the Succession is closed.
func (s *Succession[T]) Iterator() *Iterator[T] {
	return s.Iter(Forever)
}

// Head returns a non-blocking iterator over the values pushed so far.
func (s *Succession[T]) Head() *Iterator[T] {
	return s.Iter(0)
}

// Compress applies fn to the visible history and replaces it with the result. fn is used for this call
// only; the configured compression is unchanged. Existing iterators are not affected.
func (s *Succession[T]) Compress(fn CompressFunc[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compressLocked(fn)
}

// Drop removes all visible history and returns it. Existing iterators are not affected.
func (s *Succession[T]) Drop() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropLocked()
}

func (s *Succession[T]) dropLocked() []T {
	dropped := s.snapshotLocked()
	s.prelude = nil
	s.root = s.cursor
	s.observer.Dropped(len(dropped))
	return dropped
}

func (s *Succession[T]) compressLocked(fn CompressFunc[T]) {
	items := s.snapshotLocked()
	before := len(items)
	s.prelude = fn(items)
	s.root = s.cursor
	s.observer.Compacted(before, len(s.prelude))
}

// snapshotLocked copies the prelude and every committed link from root. Under the lock, every link before
// cursor is written, so the walk never blocks.
func (s *Succession[T]) snapshotLocked() []T {
	items := make([]T, 0, len(s.prelude))
	items = append(items, s.prelude...)
	for l := s.root; l != s.cursor; l = l.next {
		items = append(items, l.value)
	}
	return items
}
