package cmd

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/ethpandaops/datasage/pkg/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the catalog API with its event worker and reset scheduler",
	Long: `Loads the fixture catalog and serves it over the REST API. With Redis
configured, heat counters are shared and catalog changes are published as
events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := engine.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	// The config level applies unless --log-level was given
	if !cmd.Flags().Changed("log-level") {
		level, parseErr := logrus.ParseLevel(config.Logging)
		if parseErr != nil {
			return parseErr
		}
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{
		"config":  cfgFile,
		"version": versionString(),
	}).Info("Configuration loaded")

	svc, err := engine.NewService(logger, config)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if startErr := svc.Start(gctx); startErr != nil {
			return startErr
		}

		<-gctx.Done()

		return nil
	})

	runErr := g.Wait()

	// Graceful shutdown
	return errors.Join(runErr, svc.Stop())
}
