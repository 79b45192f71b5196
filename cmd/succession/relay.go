package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fullstorydev/go/succession"
	"github.com/fullstorydev/go/succession/internal/config"
	"github.com/fullstorydev/go/succession/internal/errgroup"
	"github.com/fullstorydev/go/succession/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// policyOptions maps a configured compaction policy onto Succession options.
func policyOptions(cfg config.CompactionConfig) []succession.Option[int] {
	switch cfg.Policy {
	case config.PolicyDrop:
		return []succession.Option[int]{succession.WithDrop[int]()}
	case config.PolicyDropAll:
		return []succession.Option[int]{succession.WithCompression(succession.DropAll[int]())}
	case config.PolicyKeepLast:
		return []succession.Option[int]{succession.WithCompression(succession.KeepLast[int](cfg.Keep))}
	case config.PolicySum:
		return []succession.Option[int]{succession.WithCompression(succession.Reduce(func(a, b int) int { return a + b }))}
	default:
		return nil
	}
}

func newObserved(reg prometheus.Registerer, name string, opts ...succession.Option[int]) (*succession.Succession[int], error) {
	o, err := metrics.New(reg, name)
	if err != nil {
		return nil, err
	}
	return succession.New(append(opts, succession.WithObserver[int](o))...), nil
}

// runRelay pushes cfg.Relay.Count values into a source succession while relays copy them to each reader,
// then reports what each reader received and what a late reader of the source sees.
func runRelay(ctx context.Context, cmd *cobra.Command, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) error {
	src, err := newObserved(reg, "source", policyOptions(cfg.Compaction)...)
	if err != nil {
		return err
	}

	dsts := make([]*succession.Succession[int], cfg.Relay.Readers)
	for i := range dsts {
		if dsts[i], err = newObserved(reg, fmt.Sprintf("reader-%d", i)); err != nil {
			return err
		}
	}

	var relayOpts []succession.RelayOption
	if cfg.Relay.Rate > 0 {
		relayOpts = append(relayOpts, succession.WithRate(rate.Limit(cfg.Relay.Rate), cfg.Relay.Burst))
	}

	// capture every iterator before the first push, so each reader sees every value even when the
	// source compacts its history
	ins := src.Iterators(len(dsts))
	g := errgroup.New(ctx)
	g.Go(func(ctx context.Context) error {
		return succession.Fanout(ctx, ins, dsts, relayOpts...)
	})
	for i, dst := range dsts {
		out := dst.Iterator()
		g.Go(func(ctx context.Context) error {
			n, sum := 0, 0
			err := out.Consume(ctx, func(_ context.Context, v int) error {
				n++
				sum += v
				logger.Debug("received", "reader", i, "value", v)
				return nil
			})
			if err != nil {
				return fmt.Errorf("reader %d: %w", i, err)
			}
			logger.Info("reader finished", "reader", i, "count", n, "sum", sum)
			return nil
		})
	}

	logger.Info("pushing", "count", cfg.Relay.Count, "policy", cfg.Compaction.Policy)
	for i := 1; i <= cfg.Relay.Count; i++ {
		src.Push(i)
	}
	src.Close()

	if err := g.Wait(); err != nil {
		return err
	}

	late, err := src.Iterator().Collect()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "late reader of source sees %d value(s): %v\n", len(late), late)
	return nil
}
