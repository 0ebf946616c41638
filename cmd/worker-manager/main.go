// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"travel-orchestrator/internal/common/camunda"
	"travel-orchestrator/internal/common/config"
	"travel-orchestrator/internal/common/logger"
	"travel-orchestrator/internal/common/observability"
	"travel-orchestrator/internal/nlu"
	"travel-orchestrator/internal/nlu/lexicon"
	"travel-orchestrator/internal/orchestration"

	am "travel-orchestrator/internal/workers/travel/analyze-message"
	etp "travel-orchestrator/internal/workers/travel/execute-travel-plan"
)

const (
	connectRetries = 10
	purgeInterval  = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.Observability, log)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	lex, err := lexicon.LoadFile(cfg.NLU.LexiconPath)
	if err != nil {
		zapLog.Fatal("lexicon failed validation", zap.Error(err))
	}

	comps, err := buildComponents(ctx, cfg, log, zapLog, connectRetries)
	if err != nil {
		zapLog.Fatal("component setup failed", zap.Error(err))
	}
	defer comps.Close()
	if comps.purger != nil {
		go runPurger(ctx, comps.purger, purgeInterval, zapLog)
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, connectRetries, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	comps.checks["zeebe"] = zeebe.HealthCheck
	zapLog.Info("Zeebe client connected successfully")

	// --- Register workers ---
	var workers []*camunda.CamundaWorker

	analyzeCfg := am.FromAppConfig(cfg)
	if analyzeCfg.Enabled {
		handler, err := am.NewHandler(am.HandlerOptions{
			Config:   analyzeCfg,
			Analyzer: nlu.NewAnalyzer(lex, log),
			Store:    comps.store,
			Catalog:  comps.catalog,
			Recorder: obs,
			Logger:   log,
		})
		if err != nil {
			zapLog.Fatal("failed to create analyze-message handler", zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      am.TaskType,
			MaxJobsActive: analyzeCfg.MaxJobsActive,
			Timeout:       analyzeCfg.Timeout,
		}, handler, zapLog))
	}

	planCfg := etp.FromAppConfig(cfg)
	if planCfg.Enabled {
		handler, err := etp.NewHandler(etp.HandlerOptions{
			Config:   planCfg,
			Runner:   orchestration.NewExecutor(comps.invoker, log, orchestration.WithTracerProvider(obs.TracerProvider())),
			Store:    comps.store,
			Catalog:  comps.catalog,
			Recorder: obs,
			Logger:   log,
		})
		if err != nil {
			zapLog.Fatal("failed to create execute-travel-plan handler", zap.Error(err))
		}
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      etp.TaskType,
			MaxJobsActive: planCfg.MaxJobsActive,
			Timeout:       planCfg.Timeout,
		}, handler, zapLog))
	}

	for _, w := range workers {
		w.Start()
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.Observability.MetricsAddr,
		Handler:           newHealthMux(comps.checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
