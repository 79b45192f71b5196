package succession

import (
	"context"
	"runtime"
	"testing"
	"time"
	"weak"

	"gotest.tools/v3/assert"
)

func TestLink_Resolve(t *testing.T) {
	l := newLink[int]()
	next := l.resolve(2)

	v, n, err := l.await(0)
	assert.NilError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, next, n)
	assert.Assert(t, !next.poll(), "next link should be pending")
}

func TestLink_Close(t *testing.T) {
	l := newLink[int]()
	l.close()

	for _, timeout := range []time.Duration{0, time.Millisecond, Forever} {
		_, n, err := l.await(timeout)
		assert.Equal(t, errClosed, err)
		assert.Assert(t, n == nil)
	}
}

func TestLink_WriteTwicePanics(t *testing.T) {
	l := newLink[int]()
	l.resolve(1)
	assert.Assert(t, panics(func() { l.resolve(2) }))
	assert.Assert(t, panics(func() { l.close() }))

	c := newLink[int]()
	c.close()
	assert.Assert(t, panics(func() { c.close() }))
	assert.Assert(t, panics(func() { c.resolve(1) }))
}

func TestLink_Timeout(t *testing.T) {
	l := newLink[int]()

	_, _, err := l.await(0)
	assert.Equal(t, ErrTimeout, err)

	_, _, err = l.await(5 * time.Millisecond)
	assert.Equal(t, ErrTimeout, err)

	// a timed out link can still be resolved and awaited
	l.resolve(7)
	v, _, err := l.await(5 * time.Millisecond)
	assert.NilError(t, err)
	assert.Equal(t, 7, v)
}

func TestLink_WakesAllWaiters(t *testing.T) {
	l := newLink[string]()

	const waiters = 8
	results := make(chan string, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			v, _, err := l.await(Forever)
			if err != nil {
				results <- err.Error()
				return
			}
			results <- v
		}()
	}

	time.Sleep(5 * time.Millisecond)
	l.resolve("go")
	for i := 0; i < waiters; i++ {
		assert.Equal(t, "go", <-results)
	}
}

func TestLink_AwaitContext(t *testing.T) {
	l := newLink[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, _, err := l.awaitContext(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)

	l.close()
	_, _, err = l.awaitContext(ctx)
	assert.Equal(t, errClosed, err, "a written link wins over a done context")
}

func TestLink_ChainDoesNotRetainHead(t *testing.T) {
	chain := newLink[int]()
	head := weak.Make(chain)
	for i := 0; i < 1000; i++ {
		chain = chain.resolve(i)
	}

	runtime.GC()
	assert.Assert(t, head.Value() == nil, "head link should have been collected")
	runtime.KeepAlive(chain)
}

func TestIterator_DoesNotRetainConsumedLinks(t *testing.T) {
	s := New[int](WithCompression(DropAll[int]()))
	it := s.Iterator()
	start := weak.Make(it.pos)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.Push(i)
		}
	}()

	for i := 0; i < 1000; i++ {
		v, err := it.Next()
		assert.NilError(t, err)
		assert.Equal(t, i, v)
	}
	<-done

	runtime.GC()
	assert.Assert(t, start.Value() == nil, "consumed link should have been collected")
	runtime.KeepAlive(it)
	runtime.KeepAlive(s)
}

func TestIterator_RetainsUnconsumedLinks(t *testing.T) {
	s := New[int](WithCompression(DropAll[int]()))
	it := s.Iterator()
	start := weak.Make(it.pos)

	for i := 0; i < 100; i++ {
		s.Push(i)
	}

	runtime.GC()
	assert.Assert(t, start.Value() != nil, "link referenced by an iterator must stay reachable")
	runtime.KeepAlive(it)
}

func TestSuccession_RootRetainsHistoryWithoutCompression(t *testing.T) {
	s := New[int]()
	start := weak.Make(s.root)

	for i := 0; i < 100; i++ {
		s.Push(i)
	}

	runtime.GC()
	assert.Assert(t, start.Value() != nil, "uncompressed history must stay reachable")

	s.Drop()
	runtime.GC()
	assert.Assert(t, start.Value() == nil, "dropped history should have been collected")
	runtime.KeepAlive(s)
}

func panics(fn func()) (ret bool) {
	defer func() {
		if recover() != nil {
			ret = true
		}
	}()
	fn()
	return false
}
