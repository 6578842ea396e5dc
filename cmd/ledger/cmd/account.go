package cmd

import (
	"context"
	"fmt"

	"stock_ledger/internal/app"
	"stock_ledger/internal/format"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Create and inspect accounts",
	}

	cmd.AddCommand(
		newAccountCreateCmd(),
		newAccountShowCmd(),
	)

	return cmd
}

func newAccountCreateCmd() *cobra.Command {
	var cash string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Register a new account with opening cash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, b *app.Bootstrap) error {
				opening := b.Config.Ledger.StartingCash
				if cash != "" {
					v, err := decimal.NewFromString(cash)
					if err != nil {
						return fmt.Errorf("bad --cash: %w", err)
					}
					opening = v
				}

				acct, err := b.Storage.CreateAccount(ctx, args[0], opening)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created account %d for %s with %s\n",
					acct.ID, acct.Username, format.USD(acct.Cash))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cash, "cash", "", "opening cash balance (default from config)")
	return cmd
}

func newAccountShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show cash, holdings and net worth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, b *app.Bootstrap) error {
				acct, err := b.Storage.GetAccountByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				p, err := b.Portfolio.GetPortfolio(ctx, acct.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Account %d (%s)\n\n", acct.ID, acct.Username)
				printHoldings(out, p.Holdings)
				fmt.Fprintln(out)
				printNetWorth(out, p.NetWorth)
				return nil
			})
		},
	}
}
