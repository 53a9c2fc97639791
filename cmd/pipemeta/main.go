package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pipemeta/pipemeta/pkg/artifacts"
	"github.com/pipemeta/pipemeta/pkg/client"
	"github.com/pipemeta/pipemeta/pkg/config"
	"github.com/pipemeta/pipemeta/pkg/server"
)

var version = "dev"

func main() {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "pipemeta",
		Short: "Build-artifact metadata service",
		Long: `Pipemeta ingests build artifacts (manifest, run results, source
freshness) into an embedded analytical store and serves health, lineage and
performance queries over HTTP.`,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.SilenceUsage = true

	root.AddCommand(newServeCmd(&configPath, &logLevel))
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the metadata HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if *logLevel != "" {
				cfg.LogLevel = *logLevel
			}
			cfg.Version = version

			logger, err := config.NewLogger(cfg)
			if err != nil {
				return err
			}

			source := artifacts.NewDirectorySource(logger, cfg.ArtifactRoot)
			metadataClient, err := client.New(
				source,
				cfg.StoreURL,
				client.WithLogger(logger),
				client.WithCacheTTL(cfg.CacheTTL.Duration),
			)
			if err != nil {
				return err
			}
			defer func() {
				if err := metadataClient.Close(); err != nil {
					logger.Errorf("Failed to close metadata client: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Launch(ctx, logger, cfg, metadataClient)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
