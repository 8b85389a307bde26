package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/bitrise-io/bitrise-plugins-ai-research/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the research form over HTTP",
	Long:  `Start the single page research form. Each submission runs one research report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := settings.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		server, err := web.NewServer(settings, resolver(), newGenerator())
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return server.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", ":8501", "Address to listen on")
}
