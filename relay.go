package succession

import (
	"context"
	"fmt"

	"github.com/fullstorydev/go/succession/internal/errgroup"
	"golang.org/x/time/rate"
)

type relayOptions struct {
	limiter *rate.Limiter
	limit   rate.Limit
	burst   int
}

// RelayOption configures Relay, Fanout, and Tee.
type RelayOption func(*relayOptions)

// WithLimiter paces forwarding: each value waits for l before it is pushed. When several relays share
// the option, they share l and its rate.
func WithLimiter(l *rate.Limiter) RelayOption {
	return func(o *relayOptions) {
		o.limiter = l
	}
}

// WithRate paces each relay independently at limit values per second with the given burst.
func WithRate(limit rate.Limit, burst int) RelayOption {
	return func(o *relayOptions) {
		o.limit = limit
		o.burst = burst
	}
}

// Relay pushes every value read from src to dst, in order, and closes dst once src is exhausted.
// If ctx is done first, Relay returns ctx.Err() and leaves dst open.
func Relay[T any](ctx context.Context, src *Iterator[T], dst *Succession[T], opts ...RelayOption) error {
	var o relayOptions
	for _, opt := range opts {
		opt(&o)
	}
	limiter := o.limiter
	if limiter == nil && o.limit > 0 {
		limiter = rate.NewLimiter(o.limit, o.burst)
	}

	err := src.Consume(ctx, func(ctx context.Context, v T) error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return fmt.Errorf("limiter: %w", err)
			}
		}
		dst.Push(v)
		return nil
	})
	if err != nil {
		return err
	}
	dst.Close()
	return nil
}

// Fanout relays srcs[i] to dsts[i] concurrently. The first failure cancels the remaining relays and is
// returned. A panic in a relay, such as one raised by a destination's compression policy, is returned as
// an *errgroup.PanicError instead of crashing the process.
func Fanout[T any](ctx context.Context, srcs []*Iterator[T], dsts []*Succession[T], opts ...RelayOption) error {
	if len(srcs) != len(dsts) {
		panic("succession: fanout needs one iterator per destination")
	}

	g := errgroup.New(ctx)
	for i, dst := range dsts {
		src := srcs[i]
		g.Go(func(ctx context.Context) error {
			return Relay(ctx, src, dst, opts...)
		})
	}
	return g.Wait()
}

// Tee relays src to every dst concurrently, as Fanout does. The iterators feeding each dst are created
// from one snapshot when Tee is called, so every dst receives the same values.
func Tee[T any](ctx context.Context, src *Succession[T], dsts []*Succession[T], opts ...RelayOption) error {
	return Fanout(ctx, src.Iterators(len(dsts)), dsts, opts...)
}
