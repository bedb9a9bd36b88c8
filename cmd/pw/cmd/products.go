package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func chartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chart <product-id>",
		Short: "Show a product's price history chart",
		Example: `  pw chart B0EXAMPLE
  pw chart B0EXAMPLE --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			series, err := c.Chart(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(series)
			}
			if len(series) == 0 {
				fmt.Println("No history found.")
				return nil
			}
			return printChartTable(series)
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "summary <product-id>",
		Short:   "Show a product's price summary",
		Example: `  pw summary B0EXAMPLE`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			s, err := c.Summary(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(s)
			}
			return printSummaryDetail(s)
		},
	}
}

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "suggest <product-id>",
		Short:   "Show the buy suggestion for a product",
		Example: `  pw suggest B0EXAMPLE`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			s, err := c.Suggestion(context.Background(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(s)
			}
			return printSuggestionDetail(s)
		},
	}
}
