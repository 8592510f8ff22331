package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newResetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete and recreate the image cache directories",
		Long:  "Deletes both image directories and recreates them empty, forcing a full re-download on the next run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.newMaterializer().Reset(); err != nil {
				return err
			}
			a.logger.Info("image directories reset",
				slog.String("fulls", a.cfg.FullsDir),
				slog.String("thumbs", a.cfg.ThumbsDir))
			return nil
		},
	}
}
