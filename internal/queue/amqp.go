package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/telemetry"
)

// AMQPConfig configures an AMQPClient.
type AMQPConfig struct {
	URL         string
	Queue       string
	Concurrency int
}

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// AMQPClient sends and consumes queue messages on RabbitMQ through the
// default exchange.
type AMQPClient struct {
	conn    *amqp.Connection
	queue   string
	workers int

	mu  sync.Mutex
	pub amqpChannel
	sub func() (amqpChannel, error)
}

// NewAMQPClient dials the broker and declares the durable work queue.
func NewAMQPClient(cfg AMQPConfig) (*AMQPClient, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("AMQP_URL is required")
	}
	queueName := strings.TrimSpace(cfg.Queue)
	if queueName == "" {
		return nil, fmt.Errorf("AMQP_QUEUE is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	c := newAMQPClient(ch, queueName, cfg.Concurrency)
	c.conn = conn
	c.sub = func() (amqpChannel, error) {
		sub, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
	return c, nil
}

func newAMQPClient(pub amqpChannel, queueName string, concurrency int) *AMQPClient {
	return &AMQPClient{queue: queueName, workers: concurrencyOr(concurrency), pub: pub}
}

// Send publishes a persistent message to the work queue.
func (c *AMQPClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode amqp message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.pub.Publish("", c.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     msg.AnalysisID,
		CorrelationId: msg.RequestID,
		Timestamp:     time.Now().UTC(),
		Body:          payload,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Consume reads deliveries with manual acks, prefetching at most
// Concurrency messages.
func (c *AMQPClient) Consume(ctx context.Context, handler Handler) error {
	if c.sub == nil {
		return errors.New("amqp consumer not connected")
	}
	ch, err := c.sub()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	defer ch.Close()
	return c.consume(ctx, ch, handler)
}

func (c *AMQPClient) consume(ctx context.Context, ch amqpChannel, handler Handler) error {
	if err := ch.Qos(c.workers, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	defer wg.Wait()
	handlerCtx := context.WithoutCancel(ctx)

	telemetry.Info("worker.started", map[string]any{
		"backend":     "amqp",
		"queue":       c.queue,
		"concurrency": c.workers,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			select {
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return nil
			case sem <- struct{}{}:
			}
			metrics.IncWorkerJobsReceived()
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				settle(handlerCtx, d, handler)
			}(d)
		}
	}
}

// settle runs handler and acks, drops or requeues the delivery. A failed
// delivery is requeued once; a second failure discards it.
func settle(ctx context.Context, d amqp.Delivery, handler Handler) {
	fields := map[string]any{
		"backend":     "amqp",
		"message_id":  d.MessageId,
		"redelivered": d.Redelivered,
	}
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			fields["error"] = ackErr
			telemetry.Error("worker.ack_failed", fields)
			return
		}
		metrics.IncWorkerJobsCompleted()
	case errors.Is(err, ErrDrop):
		fields["error"] = err
		telemetry.Error("worker.message_dropped", fields)
		if ackErr := d.Ack(false); ackErr == nil {
			metrics.IncWorkerJobsDeletedUnrecoverable()
		}
	default:
		fields["error"] = err
		telemetry.Error("worker.message_failed", fields)
		metrics.IncWorkerJobsFailed()
		_ = d.Nack(false, !d.Redelivered)
	}
}

// Close shuts the publisher channel and the connection.
func (c *AMQPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	if c.pub != nil {
		errs = append(errs, c.pub.Close())
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}

var (
	_ Client   = (*AMQPClient)(nil)
	_ Consumer = (*AMQPClient)(nil)
)
