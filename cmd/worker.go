package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/tracing"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker that runs due report schedules, scans for
low stock and processes report commands from Azure Service Bus`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	reports := b.services.Reports
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.bus.ConsumeCommands(ctx, messaging.ProcessorFunc(reports.HandleCommand))
	})

	g.Go(func() error {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return errors.Wrap(err, "failed to create scheduler")
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Reports.ScanInterval),
			gocron.NewTask(func() {
				jobCtx, txn := b.tracer.StartTransaction(ctx, "reports.run_due")
				n, err := reports.RunDue(jobCtx)
				tracing.EndTransaction(txn, err)
				if err != nil {
					log.Error().Err(err).Msg("Failed to run due report schedules")
					return
				}
				if n > 0 {
					log.Info().Int("runs", n).Msg("Ran due report schedules")
				}
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return errors.Wrap(err, "failed to schedule report job")
		}

		if cfg.Reports.LowStockInterval > 0 {
			_, err = scheduler.NewJob(
				gocron.DurationJob(cfg.Reports.LowStockInterval),
				gocron.NewTask(func() {
					jobCtx, txn := b.tracer.StartTransaction(ctx, "inventory.scan_low_stock")
					n, err := reports.ScanLowStock(jobCtx)
					tracing.EndTransaction(txn, err)
					if err != nil {
						log.Error().Err(err).Msg("Failed to scan for low stock")
						return
					}
					log.Debug().Int("tenants", n).Msg("Low stock scan finished")
				}),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				return errors.Wrap(err, "failed to schedule low stock job")
			}
		}

		log.Info().
			Dur("scan_interval", cfg.Reports.ScanInterval).
			Dur("low_stock_interval", cfg.Reports.LowStockInterval).
			Msg("Starting scheduler")
		scheduler.Start()

		<-ctx.Done()
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
