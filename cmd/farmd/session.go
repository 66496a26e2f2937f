package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldfarm/internal/asset"
	"yieldfarm/internal/chain"
	"yieldfarm/internal/config"
	"yieldfarm/internal/farm"
	"yieldfarm/internal/model"
	"yieldfarm/internal/storage"
	"yieldfarm/internal/storage/bolt"
	"yieldfarm/internal/storage/postgres"
)

// session is one CLI invocation: the ledger loaded from the store, mutated
// in memory, and written back by commit.
type session struct {
	cfg      config.Config
	logger   *zap.Logger
	store    storage.SnapshotStore
	eventLog storage.EventLog
	events   *farm.EventBuffer
	assets   *asset.Ledger
	manager  *farm.Manager
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.SnapshotStore, error) {
	switch cfg.Store {
	case config.StoreBolt:
		store, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN, postgres.Options{
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store, nil
	default:
		return storage.NewFileStore(cfg.StatePath), nil
	}
}

// openSession restores the ledger from the configured store.
func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	s := &session{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		eventLog: storage.NewJsonlEventLog(cfg.EventsPath),
		events:   &farm.EventBuffer{},
	}

	snap, found, err := store.Load(ctx)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if !found {
		s.close()
		return nil, fmt.Errorf("ledger not initialized, run farmd init")
	}

	if s.assets, err = asset.LoadLedger(snap.Balances, snap.Allowances); err != nil {
		s.close()
		return nil, fmt.Errorf("restore balances: %w", err)
	}
	if s.manager, err = farm.Restore(snap.Meta, snap.Pools, snap.Positions, s.assets, s.events, logger); err != nil {
		s.close()
		return nil, fmt.Errorf("restore ledger: %w", err)
	}
	logger.Debug("ledger loaded",
		zap.String("store", cfg.Store),
		zap.Int("pools", len(snap.Pools)),
		zap.Int("positions", len(snap.Positions)),
		zap.String("updated_at", snap.UpdatedAt),
	)
	return s, nil
}

func (s *session) close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("close store", zap.Error(err))
	}
	s.logger.Sync()
}

// tick resolves the current tick from --tick, or else from the chain head.
func (s *session) tick(ctx context.Context) (uint64, error) {
	if s.cfg.TickSet {
		return s.cfg.Tick, nil
	}
	if s.cfg.RPCURL == "" {
		return 0, fmt.Errorf("either --tick or --rpc is required")
	}
	client, err := chain.NewClient(ctx, s.cfg.RPCURL)
	if err != nil {
		return 0, fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain id: %w", err)
	}
	tick, err := client.CurrentTick(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("tick from chain", zap.String("chain_id", chainID.String()), zap.Uint64("tick", tick))
	return tick, nil
}

// call builds the operation context from --caller and the current tick.
func (s *session) call(ctx context.Context, cmd *cobra.Command) (farm.Call, error) {
	caller, err := addressFlag(cmd, "caller")
	if err != nil {
		return farm.Call{}, err
	}
	tick, err := s.tick(ctx)
	if err != nil {
		return farm.Call{}, err
	}
	return farm.Call{Caller: caller, Tick: tick}, nil
}

// commit saves the ledger, then appends the events it produced.
func (s *session) commit(ctx context.Context) error {
	if err := s.store.Save(ctx, s.manager.Snapshot(s.assets)); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	events := s.events.Drain()
	if len(events) == 0 {
		return nil
	}
	now := time.Now()
	records := make([]model.EventRecord, 0, len(events))
	for _, e := range events {
		records = append(records, e.Record(now))
	}
	if err := s.eventLog.PutEventBatch(records); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return nil
}

// withSession runs fn against a restored ledger under a signal-aware context.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(ctx, s)
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	addr, err := config.ParseAddress(value)
	if err != nil {
		return common.Address{}, fmt.Errorf("--%s: %w", name, err)
	}
	return addr, nil
}

func amountFlag(cmd *cobra.Command, name string) (*uint256.Int, error) {
	value, _ := cmd.Flags().GetString(name)
	amount, err := farm.ParseAmount(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return amount, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
}
