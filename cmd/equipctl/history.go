package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/equipment-market/internal/config"
	"github.com/cory-johannsen/equipment-market/internal/history"
	"github.com/cory-johannsen/equipment-market/internal/market"
	"github.com/cory-johannsen/equipment-market/internal/value"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		account string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent marketplace transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if account != "" && !market.ValidAddress(account) {
				return fmt.Errorf("invalid account %q", account)
			}
			a, err := newApp(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if limit <= 0 {
				limit = a.cfg.Chain.HistoryLimit
			}
			entries, err := a.recorder.Recent(cmd.Context(), account, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recent activity")
				return nil
			}
			for _, e := range entries {
				line := e.Summary()
				if e.Value != nil {
					display, err := value.FormatEther(e.Value)
					if err != nil {
						return err
					}
					line += fmt.Sprintf(" %s ETH", display)
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "only show transactions sent by this account")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries (default: chain.history_limit)")
	cmd.AddCommand(newHistoryRecordCmd(opts))
	return cmd
}

func newHistoryRecordCmd(opts *rootOptions) *cobra.Command {
	var (
		event   string
		hash    string
		block   uint64
		account string
		token   uint64
		amount  string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Store a broadcast transaction in the history log",
		Long: `Store a transaction after the wallet has broadcast it and it was mined.
--value is the ether attached to the transaction, if any.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := history.ParseEvent(event)
			if err != nil {
				return err
			}
			if !history.ValidTxHash(hash) {
				return fmt.Errorf("%w: %q", history.ErrInvalidTxHash, hash)
			}
			if !market.ValidAddress(account) {
				return fmt.Errorf("invalid account %q", account)
			}
			var wei *big.Int
			if amount != "" {
				if wei, err = value.ParseEther(amount); err != nil {
					return err
				}
			}

			a, err := newApp(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer a.close()
			if a.cfg.Chain.HistoryBackend == config.HistoryMemory {
				a.logger.Warn("memory history backend does not persist between runs")
			}

			e := history.NewEntry(name, hash, block, account, token, wei, time.Now())
			if err := a.recorder.Record(cmd.Context(), e); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s\n", e.Summary())
			return nil
		},
	}
	cmd.Flags().StringVar(&event, "event", "", "contract event: EquipmentMinted, ItemListed, ItemDelisted, ItemBought, ItemRented")
	cmd.Flags().StringVar(&hash, "hash", "", "transaction hash")
	cmd.Flags().Uint64Var(&block, "block", 0, "block number")
	cmd.Flags().StringVar(&account, "account", "", "sending account")
	cmd.Flags().Uint64Var(&token, "token", 0, "token id")
	cmd.Flags().StringVar(&amount, "value", "", "ether sent with the transaction")
	for _, name := range []string{"event", "hash", "block", "account"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
