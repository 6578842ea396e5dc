package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"stock_ledger/internal/app"
	"stock_ledger/internal/domain"
	"stock_ledger/internal/infra"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	username string
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "A brokerage-simulation ledger for cash, stock holdings and trade history",
	Long: `Ledger tracks a cash balance and stock holdings per account, executes buy
and sell orders at current quotes and keeps an immutable transaction history.

Orders are validated and applied atomically: cash, positions and history
never drift out of sync.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", infra.DefaultConfigPath, "config file")

	rootCmd.AddCommand(
		newAccountCmd(),
		newOrderCmd(domain.SideBuy),
		newOrderCmd(domain.SideSell),
		newQuoteCmd(),
		newHoldingsCmd(),
		newNetWorthCmd(),
		newHistoryCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
}

// withApp bootstraps the ledger, runs fn and releases resources
func withApp(cmd *cobra.Command, fn func(ctx context.Context, b *app.Bootstrap) error) error {
	b := app.NewBootstrap()
	if err := b.Initialize(cfgFile); err != nil {
		return err
	}
	defer b.Close()
	return fn(cmd.Context(), b)
}

// resolveAccount maps the --user flag to an account
func resolveAccount(ctx context.Context, b *app.Bootstrap) (*domain.Account, error) {
	if username == "" {
		return nil, fmt.Errorf("--user is required")
	}
	return b.Storage.GetAccountByUsername(ctx, username)
}

func addUserFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&username, "user", "u", "", "account username")
	cmd.MarkFlagRequired("user")
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
