package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"posterfeed/internal/feed"
)

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Fetch and diagnose the configured feed",
		Long:  "Fetches the configured feed, parses it, and reports item counts, items missing a guid, and the latest entry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			diag := feed.Inspect(ctx, a.httpClient(a.cfg.RequestTimeout), a.cfg.FeedURL, a.cfg.UserAgent)

			out, err := json.MarshalIndent(diag, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if diag.Status != "OK" {
				return fmt.Errorf("feed diagnosis: %s", diag.Status)
			}
			return nil
		},
	}
}
