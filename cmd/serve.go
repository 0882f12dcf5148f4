package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/textile/erp/api"
	"example.com/textile/erp/api/handlers"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server exposing the ERP REST endpoints`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	b, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	server := api.NewServer(cfg.Server, b.services, b.metrics, b.tracer.App(), healthChecks(b))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	// ctx is already cancelled here
	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("API server stopped")
	return nil
}

// healthChecks lists the components reported by /health. Only the database
// makes the service unhealthy.
func healthChecks(b *backend) []handlers.HealthCheck {
	return []handlers.HealthCheck{
		{Name: "database", Required: true, Enabled: true, Pinger: b.db},
		{Name: "redis", Enabled: b.cache.Enabled(), Pinger: b.cache},
		{Name: "elasticsearch", Enabled: b.elastic.Enabled(), Pinger: b.elastic},
		{Name: "storage", Enabled: b.store.Enabled(), Pinger: b.store},
	}
}
