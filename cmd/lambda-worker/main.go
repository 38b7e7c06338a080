package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"resume-analyzer/internal/bootstrap"
	"resume-analyzer/internal/queue"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
	"resume-analyzer/internal/workerproc"
)

var (
	initOnce   sync.Once
	initErr    error
	msgHandler queue.Handler
)

func initApp(ctx context.Context) {
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)
	app, err := bootstrap.Build(context.WithoutCancel(ctx), cfg)
	if err != nil {
		initErr = err
		return
	}
	msgHandler = workerproc.Handler(app.AnalysesService)
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(func() { initApp(ctx) })
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return handleBatch(ctx, msgHandler, event), nil
}

// handleBatch reports failed records so SQS redelivers only those. Dropped
// messages count as handled and are removed with the batch.
func handleBatch(ctx context.Context, h queue.Handler, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncWorkerJobsReceived()
		err := h(ctx, []byte(record.Body))
		switch {
		case err == nil:
			metrics.IncWorkerJobsCompleted()
		case errors.Is(err, queue.ErrDrop):
			metrics.IncWorkerJobsDeletedUnrecoverable()
		default:
			metrics.IncWorkerJobsFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
