// Package errgroup runs goroutines that share a context and converts their panics into errors.
//
// It is a variant of [golang.org/x/sync/errgroup.Group] for code that calls user-supplied functions, such as
// compression policies, from worker goroutines: a panic cancels the group and is returned by Wait as a
// *PanicError instead of crashing the process.
package errgroup

import (
	"context"
	"sync"
)

// Group runs functions in goroutines that receive the group context.
// A Group cannot be reused after Wait returns, because its context is dead.
type Group struct {
	ctx    context.Context
	cancel func(error)

	wg sync.WaitGroup

	errOnce sync.Once
	err     error
}

// New returns a Group whose context is derived from ctx.
func New(ctx context.Context) *Group {
	ctx, cancel := context.WithCancelCause(ctx)
	return &Group{ctx: ctx, cancel: cancel}
}

// Go calls f in a new goroutine. The first non-nil error or panic cancels the group context and is
// returned by Wait. Go returns immediately, recording the context error, if the group is already done.
func (g *Group) Go(f func(context.Context) error) {
	if err := g.ctx.Err(); err != nil {
		g.error(err)
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		panicked := true
		defer func() {
			if panicked {
				g.error(NewPanicError(recover()))
			}
		}()
		err := f(g.ctx)
		panicked = false
		if err != nil {
			g.error(err)
		}
	}()
}

// Wait blocks until every function started by Go has returned, then returns the first error.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.cancel(g.err)
	return g.err
}

func (g *Group) error(err error) {
	g.errOnce.Do(func() {
		g.err = err
		g.cancel(err)
	})
}
