package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fullstorydev/go/succession"
	"github.com/fullstorydev/go/succession/examples/roster"
	"github.com/fullstorydev/go/succession/internal/config"
	"github.com/fullstorydev/go/succession/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// runRoster plays a short scripted conversation, then prints what an early and a late subscriber observe.
func runRoster(ctx context.Context, cmd *cobra.Command, _ *config.Config, reg prometheus.Registerer, logger *slog.Logger) error {
	o, err := metrics.New(reg, "roster")
	if err != nil {
		return err
	}
	r := roster.New(succession.WithObserver[roster.Event](o))

	early := r.Subscribe()
	r.Join("User 1")
	r.Join("User 2")
	r.Chat("User 1", "hello")
	r.Join("User 3")
	r.Leave("User 2")
	r.Chat("User 3", "hi all")
	late := r.Subscribe()
	r.Leave("User 1")
	r.Close()
	logger.Info("room closed", "members", r.Members().String())

	out := cmd.OutOrStdout()
	for _, sub := range []struct {
		name string
		it   *succession.Iterator[roster.Event]
	}{{"early", early}, {"late", late}} {
		fmt.Fprintf(out, "%s subscriber:\n", sub.name)
		err := sub.it.Consume(ctx, func(_ context.Context, evt roster.Event) error {
			if evt.What == roster.Chat {
				fmt.Fprintf(out, "  %s %s: %s\n", evt.What, evt.Who, evt.Text)
			} else {
				fmt.Fprintf(out, "  %s %s\n", evt.What, evt.Who)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s subscriber: %w", sub.name, err)
		}
	}
	return nil
}
