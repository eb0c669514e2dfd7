package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "equipctl",
		Short:         "Equipment market pricing and transaction tool",
		Long:          `equipctl prices equipment attribute vectors, converts between wei and ether, verifies the shared pricing artifact, browses exported contract state, prepares marketplace transactions for signing, and keeps a history of broadcast transactions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "configs/dev.yaml", "path to configuration file")

	cmd.AddCommand(
		newCostCmd(),
		newFormatCmd(),
		newParseCmd(),
		newVerifyPricingCmd(opts),
		newHistoryCmd(opts),
		newInventoryCmd(opts),
		newMarketCmd(opts),
		newTxCmd(opts),
	)
	return cmd
}
