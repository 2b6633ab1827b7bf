package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tarjim/tarjim/internal/job"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a worker that polls the job store and processes jobs",
	Long: `Worker claims queued jobs one at a time and drives each through
extraction, OCR, normalization and translation. Claims are serialized
through the job store, so several workers can safely share one store.

Examples:
  tarjim worker
  tarjim worker --poll-interval 5s --metrics-addr :9090`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().Duration("poll-interval", 0, "idle delay between claim attempts")
	workerCmd.Flags().Duration("job-timeout", 0, "hard wall-clock budget per job")
	workerCmd.Flags().String("metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9090)")

	_ = viper.BindPFlag("worker.poll_interval", workerCmd.Flags().Lookup("poll-interval"))
	_ = viper.BindPFlag("worker.job_timeout", workerCmd.Flags().Lookup("job-timeout"))
	_ = viper.BindPFlag("worker.metrics_addr", workerCmd.Flags().Lookup("metrics-addr"))
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runner, ocrReg := buildRunner(cfg, store, cfg.Translate)
	defer func() { _ = ocrReg.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Worker.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.Worker.MetricsAddr)
	}

	worker := job.NewWorker(store, runner, cfg.Worker.PollInterval)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveMetrics exposes the Prometheus registry until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("Metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", "error", err)
	}
}
