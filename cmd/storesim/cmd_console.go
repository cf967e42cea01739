package main

import (
	"github.com/spf13/cobra"
)

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive store console: simulate days, inspect and restock items",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			return runConsole(cmd.InOrStdin(), cmd.OutOrStdout(), session, cfg.Store.Catalog)
		},
	}
}
