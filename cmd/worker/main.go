package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-analyzer/internal/bootstrap"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/telemetry"
	"resume-analyzer/internal/workerproc"
)

func main() {
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)
	defer telemetry.Sync()

	if cfg.QueueBackend == "" {
		log.Fatal("QUEUE_BACKEND is required (sqs or amqp)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	done := make(chan error, 1)
	go func() {
		done <- app.Consumer.Consume(ctx, workerproc.Handler(app.AnalysesService))
	}()

	select {
	case err := <-done:
		if err != nil {
			telemetry.Error("worker.consume_failed", map[string]any{"error": err})
			app.Close()
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	telemetry.Info("worker.shutting_down", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
	select {
	case err := <-done:
		if err != nil {
			telemetry.Error("worker.consume_failed", map[string]any{"error": err})
		}
	case <-time.After(cfg.ShutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
	}
	telemetry.Info("worker.stopped", nil)
}
