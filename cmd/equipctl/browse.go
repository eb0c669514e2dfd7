package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/equipment-market/internal/market"
	"github.com/cory-johannsen/equipment-market/internal/value"
)

func newInventoryCmd(opts *rootOptions) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List the equipment owned by an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.marketplace(cmd.OutOrStdout()).Inventory(cmd.Context(), owner)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), items, "No equipment owned")
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner account address")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newMarketCmd(opts *rootOptions) *cobra.Command {
	var (
		typeName string
		required []string
	)
	cmd := &cobra.Command{
		Use:   "market",
		Short: "List equipment offered for sale or rent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f market.Filter
			if typeName != "" {
				t, err := market.ParseEquipmentType(typeName)
				if err != nil {
					return err
				}
				f.Type = &t
			}
			for _, key := range required {
				attr, err := market.ParseAttribute(key)
				if err != nil {
					return err
				}
				f.Required = append(f.Required, attr)
			}

			a, err := newApp(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.marketplace(cmd.OutOrStdout()).Market(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printItems(cmd.OutOrStdout(), items, "No matching listings")
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "", "only this equipment type")
	cmd.Flags().StringSliceVar(&required, "require", nil, "attributes that must be non-zero, e.g. attackPower,lifeSteal")
	return cmd
}

func printItems(out io.Writer, items []market.Item, empty string) error {
	if len(items) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	now := time.Now()
	for _, it := range items {
		eq := it.Equipment
		worth, err := value.FormatEther(eq.Value())
		if err != nil {
			return err
		}
		listing, err := it.Listing.Describe()
		if err != nil {
			return err
		}
		attrs := make([]string, 0, value.AttributeCount)
		for _, av := range market.NonZeroAttributes(eq.Attributes) {
			attrs = append(attrs, av.String())
		}
		fmt.Fprintf(out, "#%d %s (%s) value %s ETH, %s\n", eq.TokenID, eq.Name, eq.Type, worth, listing)
		if len(attrs) > 0 {
			fmt.Fprintf(out, "    %s\n", strings.Join(attrs, ", "))
		}
		if it.Rental.Active(now) {
			fmt.Fprintf(out, "    rented by %s until %s\n", it.Rental.User, it.Rental.ExpiresAt.UTC().Format(time.RFC3339))
		}
	}
	return nil
}
