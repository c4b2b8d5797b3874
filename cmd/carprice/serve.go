package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carprice/internal/api"
	"carprice/internal/metrics"
	"carprice/internal/ml"
	"carprice/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load or train the model and serve the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := api.Options{
		Addr:           settings.Addr(),
		CORSOrigin:     settings.CORSOrigin,
		RequestTimeout: settings.RequestTimeout,
	}

	var modelOpts []ml.Option
	if settings.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		mw := metrics.NewWrapper(metrics.NewWithRegistry(reg))
		modelOpts = append(modelOpts, ml.WithMetrics(mw))
		opts.Recorder = mw
		opts.Gatherer = reg
	}

	store := openHistory()
	if store != nil {
		defer store.Close()
		opts.History = store
	}

	model := ml.New(modelConfig(settings), modelOpts...)
	start := time.Now()
	loaded, err := model.LoadOrTrain(ctx, settings.ModelPath)
	if err != nil {
		return fmt.Errorf("prepare model: %w", err)
	}
	if !loaded {
		recordTrainingRun(store, model, time.Since(start))
	}

	info := model.Info()
	log.Info().
		Bool("loaded_from_disk", loaded).
		Bool("model_trained", info.IsTrained).
		Float64("accuracy", info.Metrics.Accuracy).
		Float64("mae", info.Metrics.MAE).
		Int("port", settings.Port).
		Msg("car price prediction API ready")

	srv := api.New(model, opts)
	errc := srv.Start()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errc:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openHistory opens the bbolt history store. A failure disables history
// instead of stopping the service.
func openHistory() *storage.Store {
	if !settings.HistoryEnabled {
		return nil
	}
	store, err := storage.New(settings.DataPath)
	if err != nil {
		log.Warn().Err(err).Str("data_path", settings.DataPath).Msg("history disabled")
		return nil
	}
	return store
}

func recordTrainingRun(store *storage.Store, model *ml.Model, elapsed time.Duration) {
	if store == nil {
		return
	}
	info := model.Info()
	run := storage.TrainingRun{
		Samples:  settings.Samples,
		Seed:     settings.Seed,
		MAE:      info.Metrics.MAE,
		R2:       info.Metrics.R2,
		Duration: elapsed,
		Version:  info.Version,
	}
	if _, err := store.StoreTrainingRun(run); err != nil {
		log.Warn().Err(err).Msg("failed to record training run")
	}
}
