package errgroup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"gotest.tools/v3/assert"
)

func TestGroup_FirstError(t *testing.T) {
	g := New(context.Background())
	var ran atomic.Int32
	g.Go(func(ctx context.Context) error {
		ran.Add(1)
		return io.EOF
	})
	g.Go(func(ctx context.Context) error {
		ran.Add(1)
		<-ctx.Done() // cancelled by the first error
		return ctx.Err()
	})

	err := g.Wait()
	assert.Equal(t, int32(2), ran.Load())
	assert.Assert(t, err == io.EOF || errors.Is(err, context.Canceled), "got %v", err)
}

func TestGroup_NoError(t *testing.T) {
	g := New(context.Background())
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		g.Go(func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	assert.NilError(t, g.Wait())
	assert.Equal(t, int32(10), ran.Load())
}

func TestGroup_GoAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New(ctx)
	g.Go(func(context.Context) error {
		t.Error("should not run")
		return nil
	})
	assert.Equal(t, context.Canceled, g.Wait())
}

func TestGroup_Panic(t *testing.T) {
	g := New(context.Background())
	cancelled := make(chan struct{})
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return nil
	})
	g.Go(func(context.Context) error {
		panic("boom")
	})

	err := g.Wait()
	<-cancelled
	var pe *PanicError
	assert.Assert(t, errors.As(err, &pe))
	assert.Equal(t, "boom", pe.Recovered())
	assert.Equal(t, "panic: boom", err.Error())
	assert.Assert(t, strings.Contains(pe.StackTrace(), "errgroup.TestGroup_Panic"), pe.StackTrace())
}

func TestPanicError_Format(t *testing.T) {
	cause := errors.New("cause")
	err := NewPanicError(cause)
	assert.Assert(t, errors.Is(err, cause))
	assert.Equal(t, "panic: cause", fmt.Sprintf("%v", err))
	assert.Equal(t, `"panic: cause"`, fmt.Sprintf("%q", err))

	lines := strings.Split(fmt.Sprintf("%+v", err), "\n")
	assert.Equal(t, "panic: cause", lines[0])
	assert.Assert(t, strings.Contains(lines[1], "errgroup.TestPanicError_Format"), lines[1])

	assert.Assert(t, NewPanicError("text").Unwrap() == nil)
}
