package main

import (
	"context"

	"github.com/spf13/cobra"

	"yieldfarm/internal/farm"
)

func stakeFlags(cmd *cobra.Command, withAmount bool) {
	cmd.Flags().String("caller", "", "participant address")
	cmd.Flags().Uint64("pool", 0, "pool id")
	cmd.MarkFlagRequired("caller")
	cmd.MarkFlagRequired("pool")
	if withAmount {
		cmd.Flags().String("amount", "", "amount of the staked asset")
		cmd.MarkFlagRequired("amount")
	}
}

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Stake the pool's asset; pending reward is settled first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				call, err := s.call(ctx, cmd)
				if err != nil {
					return err
				}
				poolID, _ := cmd.Flags().GetUint64("pool")
				amount, err := amountFlag(cmd, "amount")
				if err != nil {
					return err
				}
				if err := s.manager.Deposit(ctx, call, poolID, amount); err != nil {
					return err
				}
				if err := s.commit(ctx); err != nil {
					return err
				}
				return printPosition(cmd, s.manager, poolID, call)
			})
		},
	}
	stakeFlags(cmd, true)
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Unstake; an amount of 0 only settles pending reward",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				call, err := s.call(ctx, cmd)
				if err != nil {
					return err
				}
				poolID, _ := cmd.Flags().GetUint64("pool")
				amount, err := amountFlag(cmd, "amount")
				if err != nil {
					return err
				}
				if err := s.manager.Withdraw(ctx, call, poolID, amount); err != nil {
					return err
				}
				if err := s.commit(ctx); err != nil {
					return err
				}
				return printPosition(cmd, s.manager, poolID, call)
			})
		},
	}
	stakeFlags(cmd, true)
	return cmd
}

func newClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Pay out pending reward",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				call, err := s.call(ctx, cmd)
				if err != nil {
					return err
				}
				poolID, _ := cmd.Flags().GetUint64("pool")
				paid, err := s.manager.Claim(ctx, call, poolID)
				if err != nil {
					return err
				}
				if err := s.commit(ctx); err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"pool_id":     poolID,
					"participant": call.Caller.Hex(),
					"tick":        call.Tick,
					"paid":        farm.FormatAmount(paid),
				})
			})
		},
	}
	stakeFlags(cmd, false)
	return cmd
}

func printPosition(cmd *cobra.Command, m *farm.Manager, poolID uint64, call farm.Call) error {
	pos, err := m.PositionInfo(poolID, call.Caller, call.Tick)
	if err != nil {
		return err
	}
	return printJSON(cmd, pos.Record())
}
