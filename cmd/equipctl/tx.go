package main

import (
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/equipment-market/internal/chain"
	"github.com/cory-johannsen/equipment-market/internal/market"
	"github.com/cory-johannsen/equipment-market/internal/value"
)

type txOptions struct {
	from string
}

func newTxCmd(root *rootOptions) *cobra.Command {
	opts := &txOptions{}
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Prepare marketplace transactions for signing",
		Long: `Prepare marketplace transactions. Each transaction is printed as one JSON
line, with amounts in wei, for an external wallet to sign and broadcast.
buy and rent read the price from chain.snapshot. After broadcasting, store
the outcome with "history record".`,
	}
	cmd.PersistentFlags().StringVar(&opts.from, "from", "", "sending account address")
	_ = cmd.MarkPersistentFlagRequired("from")

	cmd.AddCommand(
		newTxMintCmd(root, opts),
		newTxListCmd(root, opts),
		newTxDelistCmd(root, opts),
		newTxBuyCmd(root, opts),
		newTxRentCmd(root, opts),
	)
	return cmd
}

// withMarketplace runs fn against a Marketplace that prints transactions to
// the command's output.
func withMarketplace(cmd *cobra.Command, root *rootOptions, fn func(*chain.Marketplace) error) error {
	a, err := newApp(cmd.Context(), root.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(a.marketplace(cmd.OutOrStdout()))
}

func newTxMintCmd(root *rootOptions, opts *txOptions) *cobra.Command {
	var (
		typeName string
		name     string
		style    uint64
	)
	cmd := &cobra.Command{
		Use:   "mint <attackPower> ... <healingShielding>",
		Short: "Prepare a mintEquipment transaction paying the attribute cost",
		Args:  cobra.ExactArgs(value.AttributeCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			eqType, err := market.ParseEquipmentType(typeName)
			if err != nil {
				return err
			}
			attrs, err := value.ParseAttributes(args)
			if err != nil {
				return err
			}
			return withMarketplace(cmd, root, func(m *chain.Marketplace) error {
				_, err := m.Mint(cmd.Context(), opts.from, chain.MintRequest{
					Type:       eqType,
					Name:       name,
					StyleID:    style,
					Attributes: attrs,
				})
				return err
			})
		},
	}
	cmd.Flags().StringVar(&typeName, "type", "weapon", "equipment type: weapon, chest, legs, boots, helmet")
	cmd.Flags().StringVar(&name, "name", "", "equipment name")
	cmd.Flags().Uint64Var(&style, "style", 1, "artwork style id")
	return cmd
}

func newTxListCmd(root *rootOptions, opts *txOptions) *cobra.Command {
	var (
		token uint64
		req   market.ListingRequest
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Prepare a listItem transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.ForSale = req.SalePrice != ""
			req.ForRent = req.RentalPricePerDay != ""
			return withMarketplace(cmd, root, func(m *chain.Marketplace) error {
				_, err := m.List(cmd.Context(), opts.from, token, req)
				return err
			})
		},
	}
	cmd.Flags().Uint64Var(&token, "token", 0, "token id")
	cmd.Flags().StringVar(&req.SalePrice, "price", "", "sale price in ETH; omit to not sell")
	cmd.Flags().StringVar(&req.RentalPricePerDay, "rent", "", "rental price per day in ETH; omit to not rent")
	cmd.Flags().Uint64Var(&req.MinRentalDays, "min-days", 1, "minimum rental days")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newTxDelistCmd(root *rootOptions, opts *txOptions) *cobra.Command {
	var token uint64
	cmd := &cobra.Command{
		Use:   "delist",
		Short: "Prepare a delistItem transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMarketplace(cmd, root, func(m *chain.Marketplace) error {
				_, err := m.Delist(cmd.Context(), opts.from, token)
				return err
			})
		},
	}
	cmd.Flags().Uint64Var(&token, "token", 0, "token id")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}


func newTxBuyCmd(root *rootOptions, opts *txOptions) *cobra.Command {
	var token uint64
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Prepare a buyItem transaction paying the listed sale price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMarketplace(cmd, root, func(m *chain.Marketplace) error {
				_, err := m.Buy(cmd.Context(), opts.from, token)
				return err
			})
		},
	}
	cmd.Flags().Uint64Var(&token, "token", 0, "token id")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newTxRentCmd(root *rootOptions, opts *txOptions) *cobra.Command {
	var token, days uint64
	cmd := &cobra.Command{
		Use:   "rent",
		Short: "Prepare a rentItem transaction paying the daily price times days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMarketplace(cmd, root, func(m *chain.Marketplace) error {
				_, err := m.Rent(cmd.Context(), opts.from, token, days)
				return err
			})
		},
	}
	cmd.Flags().Uint64Var(&token, "token", 0, "token id")
	cmd.Flags().Uint64Var(&days, "days", 1, "rental days")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
