package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/shop"
)

func newStockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Show current stock, optionally only items at or below a threshold",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			write, _ := cmd.Flags().GetBool("write")

			session, _, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			var items []catalog.Item
			if cmd.Flags().Changed("low") {
				threshold, _ := cmd.Flags().GetInt("low")
				items = session.Store.LowStock(threshold)
			} else {
				items = session.Store.StockSnapshot()
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(items); err != nil {
					return err
				}
			} else {
				printStockTable(out, items)
			}

			if write {
				path, err := session.WriteUpdatedStock()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().Int("low", 0, "Only list items with stock at or below this threshold")
	cmd.Flags().Bool("json", false, "Output as JSON")
	cmd.Flags().Bool("write", false, "Also write updated_stock.csv to the store directory")
	return cmd
}

func printStockTable(out io.Writer, items []catalog.Item) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No items.")
		return
	}
	fmt.Fprintf(out, "%-6s %-24s %-24s %10s %8s %7s\n", "Id", "Name", "Tags", "Cost", "Stock", "Weight")
	for _, it := range items {
		fmt.Fprintf(out, "%-6d %-24s %-24s %10s %8s %7d\n",
			it.ID, it.Name, strings.Join(it.Tags, ", "), shop.FormatMoney(it.Cost), shop.FormatCount(it.Stock), it.Weight)
	}
}
