package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldfarm/internal/asset"
	"yieldfarm/internal/config"
	"yieldfarm/internal/farm"
	"yieldfarm/internal/storage/postgres"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty ledger with its administrator, custody account and schedule",
		RunE:  runInit,
	}
	cmd.Flags().String("admin", "", "administrator address")
	cmd.Flags().String("custody", "", "custody account holding stakes and reward funds")
	cmd.Flags().String("reward-asset", "", "reward token address")
	cmd.Flags().Uint64("start-tick", 0, "first tick of the emission window")
	cmd.Flags().Uint64("end-tick", 0, "last tick of the emission window (default unbounded)")
	cmd.Flags().String("base-rate", "0", "base reward rate per tick")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	genesis, err := genesisConfig(cfg.Genesis)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if pg, ok := store.(*postgres.Store); ok {
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
	}
	if _, found, err := store.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	} else if found {
		return fmt.Errorf("ledger already initialized")
	}

	assets := asset.NewLedger()
	manager, err := farm.NewManager(genesis, assets, nil, logger)
	if err != nil {
		return err
	}
	snap := manager.Snapshot(assets)
	if err := store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	logger.Info("ledger initialized",
		zap.String("store", cfg.Store),
		zap.String("admin", snap.Meta.Admin),
		zap.String("custody", snap.Meta.Custody),
		zap.String("reward_asset", snap.Meta.RewardAsset),
		zap.Uint64("start_tick", snap.Meta.Schedule.StartTick),
		zap.Uint64("end_tick", snap.Meta.Schedule.EndTick),
	)
	return printJSON(cmd, snap.Meta)
}

func genesisConfig(g config.Genesis) (farm.Config, error) {
	admin, err := config.ParseAddress(g.Admin)
	if err != nil {
		return farm.Config{}, fmt.Errorf("admin: %w", err)
	}
	custody, err := config.ParseAddress(g.Custody)
	if err != nil {
		return farm.Config{}, fmt.Errorf("custody: %w", err)
	}
	reward, err := config.ParseAddress(g.RewardAsset)
	if err != nil {
		return farm.Config{}, fmt.Errorf("reward asset: %w", err)
	}
	rate, err := farm.ParseAmount(g.BaseRate)
	if err != nil {
		return farm.Config{}, fmt.Errorf("base rate: %w", err)
	}
	return farm.Config{
		Admin:       admin,
		Custody:     custody,
		RewardAsset: reward,
		Schedule:    farm.Schedule{StartTick: g.StartTick, EndTick: g.EndTick, BaseRatePerTick: rate},
	}, nil
}

func newAddPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-pool",
		Short: "Register a staking pool (administrator only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				call, err := s.call(ctx, cmd)
				if err != nil {
					return err
				}
				stakedAsset, err := addressFlag(cmd, "asset")
				if err != nil {
					return err
				}
				var rate *uint256.Int
				if cmd.Flags().Changed("rate") {
					if rate, err = amountFlag(cmd, "rate"); err != nil {
						return err
					}
				}

				id, err := s.manager.AddPool(call, stakedAsset, rate)
				if err != nil {
					return err
				}
				if err := s.commit(ctx); err != nil {
					return err
				}
				return printJSON(cmd, map[string]uint64{"pool_id": id})
			})
		},
	}
	cmd.Flags().String("caller", "", "caller address")
	cmd.Flags().String("asset", "", "staked asset address")
	cmd.Flags().String("rate", "", "reward rate per tick (default: schedule base rate)")
	cmd.MarkFlagRequired("caller")
	cmd.MarkFlagRequired("asset")
	return cmd
}

func newSetPoolRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-pool-rate",
		Short: "Change a pool's reward rate after accruing at the old one (administrator only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				call, err := s.call(ctx, cmd)
				if err != nil {
					return err
				}
				poolID, _ := cmd.Flags().GetUint64("pool")
				rate, err := amountFlag(cmd, "rate")
				if err != nil {
					return err
				}
				if err := s.manager.SetPoolRate(call, poolID, rate); err != nil {
					return err
				}
				return s.commit(ctx)
			})
		},
	}
	cmd.Flags().String("caller", "", "caller address")
	cmd.Flags().Uint64("pool", 0, "pool id")
	cmd.Flags().String("rate", "", "new reward rate per tick")
	cmd.MarkFlagRequired("caller")
	cmd.MarkFlagRequired("pool")
	cmd.MarkFlagRequired("rate")
	return cmd
}

func newSetScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-schedule",
		Short: "Replace the emission window after accruing every pool (administrator only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				call, err := s.call(ctx, cmd)
				if err != nil {
					return err
				}
				sched := s.manager.Schedule()
				if cmd.Flags().Changed("start-tick") {
					sched.StartTick, _ = cmd.Flags().GetUint64("start-tick")
				}
				if cmd.Flags().Changed("end-tick") {
					sched.EndTick, _ = cmd.Flags().GetUint64("end-tick")
				}
				if cmd.Flags().Changed("base-rate") {
					if sched.BaseRatePerTick, err = amountFlag(cmd, "base-rate"); err != nil {
						return err
					}
				}
				if err := s.manager.SetSchedule(call, sched); err != nil {
					return err
				}
				return s.commit(ctx)
			})
		},
	}
	cmd.Flags().String("caller", "", "caller address")
	cmd.Flags().Uint64("start-tick", 0, "first tick of the emission window")
	cmd.Flags().Uint64("end-tick", 0, "last tick of the emission window")
	cmd.Flags().String("base-rate", "", "base reward rate per tick")
	cmd.MarkFlagRequired("caller")
	return cmd
}
