package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/storesim/internal/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the store over HTTP, optionally simulating a day on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			port := cfg.API.Port
			if cmd.Flags().Changed("port") {
				port, _ = cmd.Flags().GetInt("port")
			}
			every, _ := cmd.Flags().GetDuration("day-every")

			if cfg.API.AdminKey == "" {
				slog.Warn("STORESIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
			}

			server := &api.Server{
				Session:  session,
				Port:     port,
				AdminKey: cfg.API.AdminKey,
			}
			httpServer := server.Start()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if every > 0 {
				go server.AutoRun(ctx, every)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "API: http://localhost:%d/api/v1/status\n", port)
			if every > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Simulating one day every %s (Ctrl+C to stop)\n", every)
			}

			<-ctx.Done()
			slog.Info("received signal, shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().Int("port", 8080, "HTTP port (overrides config)")
	cmd.Flags().Duration("day-every", 0, "Simulate one day at this interval (0 = only on request)")
	return cmd
}
