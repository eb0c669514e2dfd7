package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/equipment-market/internal/config"
	"github.com/cory-johannsen/equipment-market/internal/pricing"
)

func newVerifyPricingCmd(opts *rootOptions) *cobra.Command {
	var artifact string
	cmd := &cobra.Command{
		Use:   "verify-pricing",
		Short: "Check the pricing artifact against the compiled coefficients",
		Long: `Check that the versioned pricing artifact shared with the contract deployment
matches the coefficients and decimals compiled into this binary.
Exits non-zero and lists every divergent entry on mismatch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := artifact
			if path == "" {
				cfg, err := config.Load(opts.configPath)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				path = cfg.Pricing.Artifact
			}
			table, err := pricing.Load(path)
			if err != nil {
				return err
			}
			if err := pricing.Verify(table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pricing table %q matches (%d coefficients, %d decimals)\n",
				table.Version, len(table.Coefficients), table.Decimals)
			return nil
		},
	}
	cmd.Flags().StringVar(&artifact, "artifact", "", "pricing artifact path (default: pricing.artifact from config)")
	return cmd
}
