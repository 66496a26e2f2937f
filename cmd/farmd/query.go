package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldfarm/internal/farm"
	"yieldfarm/internal/model"
)

func newPendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Show the reward a participant could claim at the current tick",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				tick, err := s.tick(ctx)
				if err != nil {
					return err
				}
				poolID, _ := cmd.Flags().GetUint64("pool")
				participant, err := addressFlag(cmd, "participant")
				if err != nil {
					return err
				}
				pending, err := s.manager.PendingReward(poolID, participant, tick)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"pool_id":        poolID,
					"participant":    participant.Hex(),
					"tick":           tick,
					"pending_reward": farm.FormatAmount(pending),
				})
			})
		},
	}
	cmd.Flags().Uint64("pool", 0, "pool id")
	cmd.Flags().String("participant", "", "participant address")
	cmd.MarkFlagRequired("pool")
	cmd.MarkFlagRequired("participant")
	return cmd
}

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show a pool accrued to the current tick",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				tick, err := s.tick(ctx)
				if err != nil {
					return err
				}
				poolID, _ := cmd.Flags().GetUint64("pool")
				pool, err := s.manager.PoolInfo(poolID, tick)
				if err != nil {
					return err
				}
				return printJSON(cmd, pool.Record())
			})
		},
	}
	cmd.Flags().Uint64("pool", 0, "pool id")
	cmd.MarkFlagRequired("pool")
	return cmd
}

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Show a participant's position settled to the current tick",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				tick, err := s.tick(ctx)
				if err != nil {
					return err
				}
				poolID, _ := cmd.Flags().GetUint64("pool")
				participant, err := addressFlag(cmd, "participant")
				if err != nil {
					return err
				}
				pos, err := s.manager.PositionInfo(poolID, participant, tick)
				if err != nil {
					return err
				}
				return printJSON(cmd, pos.Record())
			})
		},
	}
	cmd.Flags().Uint64("pool", 0, "pool id")
	cmd.Flags().String("participant", "", "participant address")
	cmd.MarkFlagRequired("pool")
	cmd.MarkFlagRequired("participant")
	return cmd
}

type reportLine struct {
	Type       string                `json:"type"`
	Tick       uint64                `json:"tick,omitempty"`
	RateAtTick string                `json:"rate_at_tick,omitempty"`
	Meta       *model.LedgerMeta     `json:"meta,omitempty"`
	Pool       *model.PoolRecord     `json:"pool,omitempty"`
	Position   *model.PositionRecord `json:"position,omitempty"`
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print every pool and position projected to the current tick as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				tick, err := s.tick(ctx)
				if err != nil {
					return err
				}
				if err := s.manager.CheckInvariants(); err != nil {
					s.logger.Error("invariant check failed", zap.Error(err))
					return err
				}

				meta, _, _ := s.manager.Records()
				line := reportLine{
					Type:       "meta",
					Tick:       tick,
					RateAtTick: farm.FormatAmount(s.manager.Schedule().RateAt(tick)),
					Meta:       &meta,
				}
				if err := printJSON(cmd, line); err != nil {
					return err
				}
				for _, stored := range s.manager.Pools() {
					pool, err := s.manager.PoolInfo(stored.ID, tick)
					if err != nil {
						return err
					}
					rec := pool.Record()
					if err := printJSON(cmd, reportLine{Type: "pool", Pool: &rec}); err != nil {
						return err
					}
					positions, err := s.manager.Positions(stored.ID)
					if err != nil {
						return err
					}
					for _, p := range positions {
						pos, err := s.manager.PositionInfo(stored.ID, p.Participant, tick)
						if err != nil {
							return err
						}
						rec := pos.Record()
						if err := printJSON(cmd, reportLine{Type: "position", Position: &rec}); err != nil {
							return err
						}
					}
				}
				s.logger.Info("report", zap.Uint64("tick", tick), zap.Int("pools", s.manager.PoolCount()))
				return nil
			})
		},
	}
}
