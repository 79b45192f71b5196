// Command succession demonstrates relaying, compaction, and room membership on top of the succession
// package.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fullstorydev/go/succession/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logLevel   string
	metrics    string
	count      int
	rate       float64
	readers    int
	policy     string
	keep       int
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:           "succession",
		Short:         "Demonstrates single-writer, multi-reader successions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.metrics, "metrics-addr", "", "serve Prometheus metrics on this address")

	relay := &cobra.Command{
		Use:   "relay",
		Short: "Push values into a source succession and relay them to several readers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &opts, runRelay)
		},
	}
	relay.Flags().IntVar(&opts.count, "count", 0, "number of values to push")
	relay.Flags().Float64Var(&opts.rate, "rate", 0, "values per second relayed to each reader (0 for unlimited)")
	relay.Flags().IntVar(&opts.readers, "readers", 0, "number of destination successions")
	relay.Flags().StringVar(&opts.policy, "policy", "", "compaction policy: none, drop, drop_all, keep_last, sum")
	relay.Flags().IntVar(&opts.keep, "keep", 0, "values retained by the keep_last policy")

	roster := &cobra.Command{
		Use:   "roster",
		Short: "Simulate a chat room and show what late subscribers observe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &opts, runRoster)
		},
	}

	root.AddCommand(relay, roster)
	return root
}

type runFunc func(ctx context.Context, cmd *cobra.Command, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) error

// run loads configuration, applies flag overrides, sets up logging and metrics, then calls fn.
func run(cmd *cobra.Command, opts *options, fn runFunc) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	lvl, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Relay.Timeout)
	defer cancel()

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "err", err)
			}
		}()
		defer srv.Close()
	}

	return filterErr(fn(ctx, cmd, cfg, reg, logger))
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.metrics
	}
	if flags.Changed("count") {
		cfg.Relay.Count = opts.count
	}
	if flags.Changed("rate") {
		cfg.Relay.Rate = opts.rate
	}
	if flags.Changed("readers") {
		cfg.Relay.Readers = opts.readers
	}
	if flags.Changed("policy") {
		cfg.Compaction.Policy = opts.policy
	}
	if flags.Changed("keep") {
		cfg.Compaction.Keep = opts.keep
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// filterErr drops errors caused by (probably user initiated) cancellation.
func filterErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
