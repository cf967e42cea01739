package main

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/talgya/storesim/internal/shop"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate one or more business days and write their CSV snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}

			session, _, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			summaries, err := session.RunDays(days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}

			total := decimal.Zero
			visitors := 0
			fmt.Fprintf(out, "%-6s %10s %14s %14s\n", "Day", "Visitors", "Transactions", "Income")
			for _, s := range summaries {
				fmt.Fprintf(out, "%-6d %10s %14s %14s\n",
					s.Day, shop.FormatCount(s.Visitors), shop.FormatCount(s.Transactions), shop.FormatMoney(s.Income))
				total = total.Add(s.Income)
				visitors += s.Visitors
			}
			fmt.Fprintf(out, "\n%d day(s), %s visitors, %s total income. Snapshots in %s\n",
				len(summaries), shop.FormatCount(visitors), shop.FormatMoney(total), session.Files.Root)
			return nil
		},
	}

	cmd.Flags().Int("days", 1, "Number of days to simulate")
	cmd.Flags().Bool("json", false, "Output day summaries as JSON")
	return cmd
}
