package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type RabbitMQBroker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	logger  *zap.SugaredLogger
	mu      sync.RWMutex
}

type Config struct {
	URL           string
	MaxRetries    int
	RetryDelay    time.Duration
	PrefetchCount int
}

// DefaultConfig returns the settings used by the server and the printer.
func DefaultConfig(url string) Config {
	return Config{
		URL:           url,
		MaxRetries:    3,
		RetryDelay:    time.Second,
		PrefetchCount: 10,
	}
}

func NewRabbitMQBroker(cfg Config, logger *zap.SugaredLogger) (*RabbitMQBroker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.Qos(cfg.PrefetchCount, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	broker := &RabbitMQBroker{
		conn:    conn,
		channel: channel,
		cfg:     cfg,
		logger:  logger,
	}

	for _, queueName := range []string{QueueOrderEvents, QueueOrderEventsDLQ} {
		if err := broker.declareQueue(queueName); err != nil {
			broker.Close()
			return nil, err
		}
	}

	return broker, nil
}

func (b *RabbitMQBroker) declareQueue(queueName string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	return nil
}

func (b *RabbitMQBroker) Publish(ctx context.Context, queueName string, message []byte) error {
	return b.publish(ctx, queueName, amqp.Publishing{
		ContentType: "application/json",
		Body:        message,
	})
}

func (b *RabbitMQBroker) publish(ctx context.Context, queueName string, msg amqp.Publishing) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	msg.DeliveryMode = amqp.Persistent
	msg.Timestamp = time.Now()
	err := b.channel.PublishWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (b *RabbitMQBroker) Subscribe(ctx context.Context, queueName string, handler MessageHandler) error {
	b.mu.RLock()
	msgs, err := b.channel.Consume(
		queueName, // queue
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	b.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				b.handleMessage(ctx, msg, handler, queueName)
			}
		}
	}()

	return nil
}

// handleMessage acks every delivery. A failed message is republished with
// an incremented x-retry-count after a backoff, and moved to the queue's
// DLQ once MaxRetries is reached.
func (b *RabbitMQBroker) handleMessage(ctx context.Context, msg amqp.Delivery, handler MessageHandler, queueName string) {
	defer msg.Ack(false)

	err := handler(ctx, msg.Body)
	if err == nil {
		return
	}

	attempt := retryCount(msg.Headers)
	if attempt < b.cfg.MaxRetries {
		select {
		case <-time.After(backoff(b.cfg.RetryDelay, attempt)):
		case <-ctx.Done():
			return
		}

		if perr := b.publish(ctx, queueName, amqp.Publishing{
			ContentType: msg.ContentType,
			Body:        msg.Body,
			Headers:     amqp.Table{"x-retry-count": int32(attempt + 1)},
		}); perr != nil {
			b.logger.Errorw("requeue failed", "queue", queueName, "error", perr)
		}
		return
	}

	dlqName := queueName + "-dlq"
	b.logger.Warnw("moving message to DLQ", "queue", queueName, "retries", attempt, "error", err)
	if perr := b.publish(ctx, dlqName, amqp.Publishing{
		ContentType: msg.ContentType,
		Body:        msg.Body,
		Headers: amqp.Table{
			"x-original-queue": queueName,
			"x-retry-count":    int32(attempt),
			"x-error":          err.Error(),
		},
	}); perr != nil {
		b.logger.Errorw("publish to DLQ failed", "queue", dlqName, "error", perr)
	}
}

func retryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch n := headers["x-retry-count"].(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// backoff doubles base for every attempt already made.
func backoff(base time.Duration, attempt int) time.Duration {
	return base << attempt
}

func (b *RabbitMQBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channel != nil {
		b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
