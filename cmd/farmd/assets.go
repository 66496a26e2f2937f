package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yieldfarm/internal/config"
	"yieldfarm/internal/farm"
)

func newMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Credit tokens in the bundled asset ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				token, err := addressFlag(cmd, "token")
				if err != nil {
					return err
				}
				to, err := addressFlag(cmd, "to")
				if err != nil {
					return err
				}
				amount, err := amountFlag(cmd, "amount")
				if err != nil {
					return err
				}
				if err := s.assets.Mint(token, to, amount); err != nil {
					return err
				}
				s.logger.Info("mint", zap.String("token", token.Hex()), zap.String("to", to.Hex()), zap.String("amount", farm.FormatAmount(amount)))
				return s.commit(ctx)
			})
		},
	}
	cmd.Flags().String("token", "", "token address")
	cmd.Flags().String("to", "", "recipient address")
	cmd.Flags().String("amount", "", "amount to credit")
	cmd.MarkFlagRequired("token")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func newApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Set the amount a spender may move for an owner (the custody account for deposits)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(ctx context.Context, s *session) error {
				token, err := addressFlag(cmd, "token")
				if err != nil {
					return err
				}
				owner, err := addressFlag(cmd, "owner")
				if err != nil {
					return err
				}
				spender := s.manager.Custody()
				if cmd.Flags().Changed("spender") {
					if spender, err = addressFlag(cmd, "spender"); err != nil {
						return err
					}
				}
				amount, err := amountFlag(cmd, "amount")
				if err != nil {
					return err
				}
				s.assets.Approve(token, owner, spender, amount)
				s.logger.Info("approve", zap.String("token", token.Hex()), zap.String("owner", owner.Hex()), zap.String("spender", spender.Hex()))
				return s.commit(ctx)
			})
		},
	}
	cmd.Flags().String("token", "", "token address")
	cmd.Flags().String("owner", "", "owner address")
	cmd.Flags().String("spender", "", "spender address (default: custody)")
	cmd.Flags().String("amount", "", "allowance")
	cmd.MarkFlagRequired("token")
	cmd.MarkFlagRequired("owner")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func newBalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show token balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(_ context.Context, s *session) error {
				token, err := addressFlag(cmd, "token")
				if err != nil {
					return err
				}
				raw, _ := cmd.Flags().GetStringSlice("holder")
				holders, err := config.ParseAddresses(raw)
				if err != nil {
					return err
				}
				if len(holders) == 0 {
					return fmt.Errorf("at least one --holder is required")
				}
				for _, h := range holders {
					err := printJSON(cmd, map[string]string{
						"token":  token.Hex(),
						"holder": h.Hex(),
						"amount": farm.FormatAmount(s.assets.BalanceOf(token, h)),
					})
					if err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().String("token", "", "token address")
	cmd.Flags().StringSlice("holder", nil, "holder addresses (comma-separated)")
	cmd.MarkFlagRequired("token")
	return cmd
}
