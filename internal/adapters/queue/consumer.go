package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	consumerPrefetch = 20
	maxBackoff       = 30 * time.Second
)

// RunEmailConsumer consumes email jobs from queue until ctx is cancelled,
// reconnecting with exponential backoff when the broker goes away. Jobs that
// fail to decode or deliver are rejected without requeue.
func RunEmailConsumer(ctx context.Context, url, queue string, handler JobHandler, logger *slog.Logger) {
	backoff := time.Second
	for {
		conn, err := dialBroker(url, defaultDialTimeout)
		if err != nil {
			logger.Warn("email consumer: dial failed", "err", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = consume(ctx, conn, queue, handler, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		logger.Warn("email consumer: loop ended, reconnecting", "err", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return
		}
	}
}

func consume(ctx context.Context, conn *amqp.Connection, queue string, handler JobHandler, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		logger.Warn("email consumer: set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleDelivery(ctx, d.Body, handler); err != nil {
				logger.Error("email consumer: job failed", "message_id", d.MessageId, "err", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleDelivery(ctx context.Context, body []byte, handler JobHandler) error {
	job, err := decodeJob(body)
	if err != nil {
		return err
	}
	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	return handler.Handle(jobCtx, job)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
