package cmd

import (
	"context"
	"fmt"
	"strings"

	"stock_ledger/internal/app"
	"stock_ledger/internal/domain"
	"stock_ledger/internal/format"

	"github.com/spf13/cobra"
)

func newOrderCmd(side domain.Side) *cobra.Command {
	verb := strings.ToLower(string(side))
	title := "Buy"
	if side == domain.SideSell {
		title = "Sell"
	}

	cmd := &cobra.Command{
		Use:   verb + " <symbol> <shares>",
		Short: title + " whole shares of a stock at the current quote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, b *app.Bootstrap) error {
				acct, err := resolveAccount(ctx, b)
				if err != nil {
					return err
				}

				tx, err := b.Engine.SubmitRaw(ctx, acct.ID, args[0], args[1], string(side))
				if err != nil {
					return err
				}

				cash, err := b.Storage.GetAccount(ctx, acct.ID)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s @ %s = %s (order %s)\nCash: %s\n",
					tx.Side, tx.Shares, tx.Symbol, format.USD(tx.Price), format.USD(tx.Amount()),
					tx.OrderID, format.USD(cash.Cash))
				return nil
			})
		},
	}

	addUserFlag(cmd)
	return cmd
}
