package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/ecwatch/pricewatch/pkg/types"
)

func favoritesCmd() *cobra.Command {
	favRoot := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorites and price alerts",
		Long: "Manage a user's favorited products and their per-channel price\n" +
			"alerts. Alerts must be disabled before a favorite can be removed.",
	}

	favRoot.AddCommand(
		favoritesListCmd(),
		favoritesAddCmd(),
		favoritesRemoveCmd(),
		favoritesAlertCmd(),
	)

	return favRoot
}

func favoritesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's favorites",
		Example: `  pw favorites list alice
  pw favorites list alice --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			states, err := c.ListFavorites(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(states)
			}
			if len(states) == 0 {
				fmt.Println("No favorites found.")
				return nil
			}
			return printFavoritesTable(states)
		},
	}
}

func favoritesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <user-id> <product-id>",
		Short:   "Favorite a product",
		Example: `  pw favorites add alice B0EXAMPLE`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			status, err := c.AddFavorite(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(status)
			}
			return printStatusDetail(status)
		},
	}
}

func favoritesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <user-id> <product-id>",
		Short:   "Remove a favorite",
		Example: `  pw favorites remove alice B0EXAMPLE`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			status, err := c.RemoveFavorite(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(status)
			}
			fmt.Printf("Favorite %s removed for %s.\n", args[1], args[0])
			fmt.Printf("Tracking count: %d\n", status.TrackingCount)
			return nil
		},
	}
}

func favoritesAlertCmd() *cobra.Command {
	var disable bool

	cmd := &cobra.Command{
		Use:   "alert <user-id> <product-id> <channel>",
		Short: "Enable or disable a price alert channel",
		Long: "Enable a price alert on the email or push channel for a favorited\n" +
			"product, or disable it with --disable. Enabling the first channel\n" +
			"starts tracking; disabling the last one stops it.",
		Example: `  pw favorites alert alice B0EXAMPLE email
  pw favorites alert alice B0EXAMPLE push --disable`,
		Args: cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			ch, err := domain.ParseChannel(args[2])
			if err != nil {
				return err
			}
			c := newClient()
			status, err := c.SetAlert(context.Background(), args[0], args[1], ch, !disable)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(status)
			}
			return printStatusDetail(status)
		},
	}
	cmd.Flags().BoolVar(&disable, "disable", false, "disable the alert channel")

	return cmd
}
