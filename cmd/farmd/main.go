package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "farmd",
		Short:        "Yield farming incentive ledger",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store", "file", "state backend (file, bolt, postgres)")
	flags.String("state", "./data/farm.json", "state file for the file backend")
	flags.String("bolt", "./data/farm.db", "database path for the bolt backend")
	flags.String("pg-dsn", "", "Postgres DSN for the postgres backend")
	flags.String("events", "./data/events.jsonl", "event log JSONL path")
	flags.String("rpc", "", "RPC URL; the latest block number is the tick when --tick is not set")
	flags.Uint64("tick", 0, "current tick")
	flags.Int("max-retries", 5, "maximum Postgres connect retries")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(),
		newAddPoolCmd(),
		newSetPoolRateCmd(),
		newSetScheduleCmd(),
		newDepositCmd(),
		newWithdrawCmd(),
		newClaimCmd(),
		newPendingCmd(),
		newPoolCmd(),
		newPositionCmd(),
		newReportCmd(),
		newMintCmd(),
		newApproveCmd(),
		newBalanceCmd(),
		newMigrateCmd(),
	)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
