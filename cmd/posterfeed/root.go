package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"posterfeed/internal/config"
	"posterfeed/internal/feed"
	"posterfeed/internal/images"
	"posterfeed/internal/observability/logging"
	"posterfeed/internal/pipeline"
	"posterfeed/internal/poster"
)

// app carries the configuration and logger shared by all subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	var configFlag string

	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "posterfeed",
		Short:         "Fetch, clean, and re-publish a Letterboxd RSS feed with cached poster images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Bootstrap logger so config loading can report fallbacks;
			// reconfigured below once the config is known.
			bootstrap := logging.New("text", "info")

			cfg, err := config.Load(configFlag, bootstrap)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(cfg.LogFormat, cfg.LogLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newResetCommand(a))
	rootCmd.AddCommand(newInspectCommand(a))

	return rootCmd
}

// newService builds the pipeline service from the loaded configuration.
func (a *app) newService() *pipeline.Service {
	fetcher := feed.NewFetcher(a.httpClient(a.cfg.RequestTimeout), a.cfg.UserAgent)
	resolver := poster.NewResolver(a.httpClient(a.cfg.ScrapeTimeout), a.cfg.UserAgent, a.cfg.ScrapeRateLimit)
	materializer := a.newMaterializer()
	return pipeline.NewService(a.cfg, fetcher, resolver, materializer)
}

func (a *app) newMaterializer() *images.Materializer {
	return images.NewMaterializer(
		a.httpClient(a.cfg.RequestTimeout),
		a.cfg.FullsDir,
		a.cfg.ThumbsDir,
		a.cfg.UserAgent,
	)
}

// httpClient creates an HTTP client with the given timeout and conservative
// connection pooling.
func (a *app) httpClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
