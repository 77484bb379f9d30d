package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/itchyny/gojq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/squidish/solana-whale-watcher/service/config"
	"github.com/squidish/solana-whale-watcher/service/metrics"
	natspkg "github.com/squidish/solana-whale-watcher/service/nats"
	"github.com/squidish/solana-whale-watcher/service/solana"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the transaction stream for large SOL movements",
		Description: `Subscribes to all transaction logs at finalized commitment, looks up each
referenced transaction, and collects per-account SOL balance changes whose
magnitude is at least the threshold. Stops once the requested number of
qualifying transactions has been seen, then prints the collected events.

Example:
  whalewatcher watch --max-events 10 --threshold-sol 100`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "max-events",
				Aliases: []string{"n"},
				Usage:   "Number of qualifying transactions to collect",
				Value:   5,
			},
			&cli.Float64Flag{
				Name:    "threshold-sol",
				Aliases: []string{"t"},
				Usage:   "Minimum SOL delta (absolute value) to report",
				Value:   0.001,
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC endpoint",
				EnvVars: []string{"SOLANA_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    "ws-url",
				Usage:   "Solana WebSocket endpoint",
				EnvVars: []string{"SOLANA_WS_URL"},
			},
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "Publish qualifying events to this NATS server (disabled when empty)",
				EnvVars: []string{"NATS_URL"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Expose Prometheus metrics on this address (disabled when empty)",
				EnvVars: []string{"METRICS_ADDR"},
			},
			&cli.DurationFlag{
				Name:    "lookup-timeout",
				Usage:   "Timeout for each transaction lookup (0 waits indefinitely)",
				EnvVars: []string{"LOOKUP_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Print events as JSON (one per line)",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "Apply a jq expression to each event before printing (implies --json input shape)",
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override env-derived config.
	if c.IsSet("rpc-url") {
		cfg.SolanaRPCURL = c.String("rpc-url")
	}
	if c.IsSet("ws-url") {
		cfg.SolanaWSURL = c.String("ws-url")
	}
	if c.IsSet("nats-url") {
		cfg.NATSURL = c.String("nats-url")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("lookup-timeout") {
		cfg.LookupTimeout = c.Duration("lookup-timeout")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	maxEvents := c.Int("max-events")
	threshold := c.Float64("threshold-sol")
	jsonOutput := c.Bool("json")

	// Compile the jq expression up front so a bad expression fails before
	// we open any connections.
	var jqCode *gojq.Code
	if expr := c.String("jq"); expr != "" {
		query, err := gojq.Parse(expr)
		if err != nil {
			return fmt.Errorf("failed to parse jq expression %q: %w", expr, err)
		}
		jqCode, err = gojq.Compile(query)
		if err != nil {
			return fmt.Errorf("failed to compile jq expression %q: %w", expr, err)
		}
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting watch",
		"rpc_url", cfg.SolanaRPCURL,
		"ws_url", cfg.SolanaWSURL,
		"max_events", maxEvents,
		"threshold_sol", threshold,
	)

	m := metrics.NewMetrics(nil)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	observer := solana.NewObserver(
		solana.NewRPCClient(cfg.SolanaRPCURL),
		solana.NewStreamDialer(cfg.SolanaWSURL),
		cfg.SolanaRPCURL,
		m,
		logger,
	)
	observer.SetLookupTimeout(cfg.LookupTimeout)

	if cfg.NATSURL != "" {
		publisher, err := natspkg.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize NATS publisher: %w", err)
		}
		defer publisher.Close()
		observer.SetEventSink(publisher)
	}

	// Cancel on interrupt so a Ctrl-C still ends the run cleanly with
	// whatever was collected so far.
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	results, err := observer.Observe(ctx, maxEvents, threshold)
	if err != nil && !errors.Is(err, solana.ErrStreamTerminated) {
		return err
	}

	fmt.Println("FINAL RESULTS:")
	for _, change := range results {
		line, ferr := formatBalanceChange(change, jsonOutput, jqCode)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "failed to format event: %v\n", ferr)
			continue
		}
		if line != "" {
			fmt.Println(line)
		}
	}

	if err != nil {
		// Partial run: the stream ended before maxEvents was reached.
		fmt.Fprintf(os.Stderr, "stream ended early: collected %d event(s) from fewer than %d qualifying transactions\n",
			len(results), maxEvents)
	}
	return nil
}

// formatBalanceChange renders one event for stdout. With a jq program the
// event's JSON form is piped through it; an expression producing no output
// suppresses the line.
func formatBalanceChange(change solana.BalanceChange, jsonOutput bool, jqCode *gojq.Code) (string, error) {
	if jqCode == nil && !jsonOutput {
		return fmt.Sprintf("%s: %s %.9f SOL (%s)",
			change.Account, change.Direction, math.Abs(change.DeltaSOL), change.Reason), nil
	}

	data, err := json.Marshal(change)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	if jqCode == nil {
		return string(data), nil
	}

	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return "", fmt.Errorf("failed to unmarshal event for jq: %w", err)
	}

	iter := jqCode.Run(input)
	v, ok := iter.Next()
	if !ok {
		return "", nil
	}
	if jqErr, isErr := v.(error); isErr {
		return "", fmt.Errorf("jq evaluation failed: %w", jqErr)
	}

	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal jq result: %w", err)
	}
	return string(out), nil
}
