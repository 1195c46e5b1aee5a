// Command caraveld runs a single caravel node: the proof-of-work
// ledger, its services and the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/caravelchain/caravel/node"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	listen        string
	difficulty    int
	reward        uint64
	sweepInterval time.Duration
	keystore      string
	logLevel      string
	prettyLogs    bool
}

func main() {
	opts := options{}

	root := &cobra.Command{
		Use:           "caraveld",
		Short:         "caravel blockchain node",
		Long:          "caraveld serves a single in-memory proof-of-work ledger with wallets, smart contracts, supply chain tracking and travel booking over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := root.Flags()
	flags.StringVar(&opts.listen, "listen", ":8080", "HTTP listen address")
	flags.IntVar(&opts.difficulty, "difficulty", 4, "mining difficulty in leading hex zeros (1-10)")
	flags.Uint64Var(&opts.reward, "reward", 50, "mining reward per block")
	flags.DurationVar(&opts.sweepInterval, "sweep-interval", 30*time.Second, "contract condition sweep interval")
	flags.StringVar(&opts.keystore, "keystore", "", "keystore file, loaded on start and saved on shutdown")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.prettyLogs, "pretty-logs", false, "human readable log output")

	if err := root.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(opts options) error {
	logger, err := buildLogger(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	banner(opts)

	n, err := node.New(node.Config{
		ListenAddr:            opts.listen,
		Difficulty:            opts.difficulty,
		MiningReward:          opts.reward,
		ContractSweepInterval: opts.sweepInterval,
		KeystorePath:          opts.keystore,
		Logger:                logger,
	})
	if err != nil {
		return fmt.Errorf("build node: %w", err)
	}
	n.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return n.Stop(ctx)
}

func buildLogger(opts options) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(opts.logLevel); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if opts.prettyLogs {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func banner(opts options) {
	pterm.DefaultBox.WithTitle("caravel").WithTitleTopCenter().Println(
		fmt.Sprintf("listen      %s\ndifficulty  %d\nreward      %d",
			opts.listen, opts.difficulty, opts.reward))
}
