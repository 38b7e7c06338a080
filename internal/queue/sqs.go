package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	defaultSQSRegion         = "us-east-1"
	defaultVisibilitySeconds = 1200
	maxReceiveBatch          = 10
	receiveWaitSeconds       = 20
	receiveErrorBackoff      = 2 * time.Second
)

// SQSConfig configures an SQSClient.
type SQSConfig struct {
	Region            string
	QueueURL          string
	Concurrency       int
	VisibilitySeconds int32
}

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSClient sends and consumes queue messages on AWS SQS.
type SQSClient struct {
	client sqsAPI
	cfg    SQSConfig
}

// NewSQSClient constructs an SQS-backed queue client.
func NewSQSClient(ctx context.Context, cfg SQSConfig) (*SQSClient, error) {
	cfg.QueueURL = strings.TrimSpace(cfg.QueueURL)
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("SQS_QUEUE_URL is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultSQSRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSQSClient(sqs.NewFromConfig(awsCfg), cfg), nil
}

func newSQSClient(client sqsAPI, cfg SQSConfig) *SQSClient {
	cfg.Concurrency = concurrencyOr(cfg.Concurrency)
	if cfg.VisibilitySeconds <= 0 {
		cfg.VisibilitySeconds = defaultVisibilitySeconds
	}
	return &SQSClient{client: client, cfg: cfg}
}

// Send delivers a message to the configured SQS queue.
func (s *SQSClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode sqs message: %w", err)
	}

	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.cfg.QueueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs send message: %w", err)
	}
	return nil
}

// Consume long-polls the queue and runs handler on up to Concurrency
// messages at once.
func (s *SQSClient) Consume(ctx context.Context, handler Handler) error {
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	// In-flight handlers finish even after shutdown starts.
	handlerCtx := context.WithoutCancel(ctx)

	telemetry.Info("worker.started", map[string]any{
		"backend":            "sqs",
		"queue":              s.cfg.QueueURL,
		"concurrency":        s.cfg.Concurrency,
		"visibility_seconds": s.cfg.VisibilitySeconds,
	})

	for {
		if ctx.Err() != nil {
			return nil
		}
		resp, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.cfg.QueueURL),
			MaxNumberOfMessages: maxReceiveBatch,
			WaitTimeSeconds:     receiveWaitSeconds,
			VisibilityTimeout:   s.cfg.VisibilitySeconds,
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			telemetry.Error("worker.receive_failed", map[string]any{"backend": "sqs", "error": err})
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(receiveErrorBackoff):
			}
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				return nil
			case sem <- struct{}{}:
			}
			metrics.IncWorkerJobsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				s.handle(handlerCtx, m, handler)
			}(msg)
		}
	}
}

func (s *SQSClient) handle(ctx context.Context, msg sqstypes.Message, handler Handler) {
	fields := map[string]any{
		"backend":        "sqs",
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	err := handler(ctx, []byte(aws.ToString(msg.Body)))
	switch {
	case err == nil:
		if s.delete(ctx, msg, fields) {
			metrics.IncWorkerJobsCompleted()
		}
	case errors.Is(err, ErrDrop):
		fields["error"] = err
		telemetry.Error("worker.message_dropped", fields)
		if s.delete(ctx, msg, fields) {
			metrics.IncWorkerJobsDeletedUnrecoverable()
		}
	default:
		fields["error"] = err
		telemetry.Error("worker.message_failed", fields)
		metrics.IncWorkerJobsFailed()
	}
}

func (s *SQSClient) delete(ctx context.Context, msg sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.delete_failed", fields)
		return false
	}
	if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.cfg.QueueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields["error"] = err
		telemetry.Error("worker.delete_failed", fields)
		return false
	}
	return true
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

var (
	_ Client   = (*SQSClient)(nil)
	_ Consumer = (*SQSClient)(nil)
)
