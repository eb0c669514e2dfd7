package main

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/equipment-market/internal/market"
	"github.com/cory-johannsen/equipment-market/internal/value"
)

func newCostCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "cost <attackPower> <abilityPower> ... <healingShielding>",
		Short: "Compute the mint cost of a 12-attribute vector",
		Long: `Compute the mint cost of an attribute vector in wei and ether.
Entries that are not integers count as zero.`,
		Args: cobra.ExactArgs(value.AttributeCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := value.ParseAttributes(args)
			if err != nil {
				return err
			}
			cost := value.CostOf(attrs)
			display, err := value.FormatEther(cost)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s wei (%s ETH)\n", cost.String(), display)
			if verbose {
				for _, av := range market.NonZeroAttributes(attrs) {
					fmt.Fprintf(out, "  %s x %d\n", av.String(), av.Attribute.Coefficient())
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list the non-zero attributes and their weights")
	return cmd
}

func newFormatCmd() *cobra.Command {
	var decimals uint
	cmd := &cobra.Command{
		Use:   "format <amount>",
		Short: "Render a smallest-unit integer amount as a decimal string",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, ok := new(big.Int).SetString(strings.TrimSpace(args[0]), 10)
			if !ok {
				return fmt.Errorf("amount %q is not an integer", args[0])
			}
			display, err := value.ToDisplayString(amount, decimals)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), display)
			return nil
		},
	}
	cmd.Flags().UintVar(&decimals, "decimals", value.EtherDecimals, "decimal places of the unit")
	return cmd
}

func newParseCmd() *cobra.Command {
	var decimals uint
	cmd := &cobra.Command{
		Use:   "parse <decimal>",
		Short: "Convert a decimal string into a smallest-unit integer amount",
		Long: `Convert a decimal string into a smallest-unit integer amount.
Fractional digits beyond --decimals are truncated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := value.ToSmallestUnit(args[0], decimals)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), amount.String())
			return nil
		},
	}
	cmd.Flags().UintVar(&decimals, "decimals", value.EtherDecimals, "decimal places of the unit")
	return cmd
}
