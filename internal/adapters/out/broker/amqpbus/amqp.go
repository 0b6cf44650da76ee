// Package amqpbus fans order snapshots out through a RabbitMQ fanout exchange.
// Every listener binds its own exclusive, auto-deleted queue, so each instance sees
// every update published after it started listening.
package amqpbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"carservice/internal/adapters/out/broker"
	"carservice/internal/core/domain/model/order"

	"github.com/streadway/amqp"
)

const DefaultExchange = "order-updates"

type Broker struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	// amqp.Channel is not safe for concurrent publishing.
	mu      sync.Mutex
	publish *amqp.Channel
}

func New(url, exchange string, logger *slog.Logger) (*Broker, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Broker{
		conn:     conn,
		exchange: exchange,
		logger:   logger.With("component", "amqp_broker"),
		publish:  ch,
	}, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeFanout,
		false, // durable: updates are transient
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

func (b *Broker) Publish(_ context.Context, snapshot order.Snapshot) error {
	body, err := broker.Encode(snapshot)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	err = b.publish.Publish(
		b.exchange,
		"",    // routing key is ignored by fanout exchanges
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			MessageId:    snapshot.ID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish order %s: %w", snapshot.ID, err)
	}
	return nil
}

func (b *Broker) Listen(ctx context.Context, handle func(order.Snapshot)) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	queue, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", b.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue.Name, err)
	}

	deliveries, err := ch.Consume(
		queue.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return fmt.Errorf("amqp channel closed: %w", amqpErr)
			}
			return errors.New("amqp channel closed")
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery stream closed")
			}
			snapshot, err := broker.Decode(msg.Body)
			if err != nil {
				b.logger.WarnContext(ctx, "Dropping malformed order update", "error", err)
				continue
			}
			handle(snapshot)
		}
	}
}

func (b *Broker) Close() error {
	var errs []error
	b.mu.Lock()
	if err := b.publish.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
	}
	b.mu.Unlock()
	if err := b.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
	}
	return errors.Join(errs...)
}
