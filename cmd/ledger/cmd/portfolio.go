package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"stock_ledger/internal/app"
	"stock_ledger/internal/format"
	"stock_ledger/internal/service"

	"github.com/spf13/cobra"
)

func newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Look up the current price of a stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, b *app.Bootstrap) error {
				q, err := b.Portfolio.Quote(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "A share of %s (%s) costs %s.\n", q.Name, q.Symbol, format.USD(q.Price))
				return nil
			})
		},
	}
}

func newHoldingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "List current holdings at current prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, b *app.Bootstrap) error {
				acct, err := resolveAccount(ctx, b)
				if err != nil {
					return err
				}
				holdings, err := b.Portfolio.GetHoldings(ctx, acct.ID)
				if err != nil {
					return err
				}
				printHoldings(cmd.OutOrStdout(), holdings)
				return nil
			})
		},
	}
	addUserFlag(cmd)
	return cmd
}

func newNetWorthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networth",
		Short: "Show cash plus the market value of all holdings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, b *app.Bootstrap) error {
				acct, err := resolveAccount(ctx, b)
				if err != nil {
					return err
				}
				nw, err := b.Portfolio.GetNetWorth(ctx, acct.ID)
				if err != nil {
					return err
				}
				printNetWorth(cmd.OutOrStdout(), nw)
				return nil
			})
		},
	}
	addUserFlag(cmd)
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List executed transactions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, b *app.Bootstrap) error {
				acct, err := resolveAccount(ctx, b)
				if err != nil {
					return err
				}
				history, err := b.Portfolio.GetHistory(ctx, acct.ID)
				if err != nil {
					return err
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "SIDE\tSYMBOL\tSHARES\tPRICE\tTRANSACTED")
				for _, tx := range history {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
						tx.Side, tx.Symbol, tx.Shares, format.USD(tx.Price),
						tx.ExecutedAt.Local().Format(time.DateTime))
				}
				return tw.Flush()
			})
		},
	}
	addUserFlag(cmd)
	return cmd
}

func printHoldings(w io.Writer, holdings []service.Holding) {
	tw := newTable(w)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tSHARES\tPRICE\tTOTAL")
	for _, h := range holdings {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			h.Symbol, h.Name, h.Shares, format.NullUSD(h.Price), format.NullUSD(h.MarketValue))
	}
	tw.Flush()
}

func printNetWorth(w io.Writer, nw service.NetWorth) {
	tw := newTable(w)
	fmt.Fprintf(tw, "CASH\t%s\n", format.USD(nw.Cash))
	fmt.Fprintf(tw, "HOLDINGS\t%s\n", format.USD(nw.HoldingsValue))
	fmt.Fprintf(tw, "TOTAL\t%s\n", format.USD(nw.Total))
	tw.Flush()
	if !nw.Complete {
		fmt.Fprintln(w, "Some quotes were unavailable; total excludes those holdings.")
	}
}
