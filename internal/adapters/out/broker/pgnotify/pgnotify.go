// Package pgnotify uses PostgreSQL LISTEN/NOTIFY as the update broker, so deployments
// on the postgres store need no extra infrastructure.
package pgnotify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carservice/internal/adapters/out/broker"
	"carservice/internal/core/domain/model/order"

	"github.com/lib/pq"
)

const (
	DefaultChannel = "order_updates"

	// NOTIFY rejects payloads of 8000 bytes or more.
	maxPayload = 7999

	minReconnectInterval = 100 * time.Millisecond
	maxReconnectInterval = 10 * time.Second
	pingInterval         = 90 * time.Second
)

var ErrPayloadTooLarge = errors.New("order update exceeds the NOTIFY payload limit")

type Broker struct {
	db      *sql.DB
	dsn     string
	channel string
	logger  *slog.Logger
}

// New opens a lib/pq connection pool for NOTIFY. Listen opens its own dedicated
// connection per call.
func New(ctx context.Context, dsn, channel string, logger *slog.Logger) (*Broker, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broker{
		db:      db,
		dsn:     dsn,
		channel: channel,
		logger:  logger.With("component", "pgnotify_broker"),
	}, nil
}

func (b *Broker) Publish(ctx context.Context, snapshot order.Snapshot) error {
	body, err := broker.Encode(snapshot)
	if err != nil {
		return err
	}
	if len(body) > maxPayload {
		return fmt.Errorf("order %s: %w", snapshot.ID, ErrPayloadTooLarge)
	}
	if _, err := b.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", b.channel, string(body)); err != nil {
		return fmt.Errorf("failed to notify order %s: %w", snapshot.ID, err)
	}
	return nil
}

func (b *Broker) Listen(ctx context.Context, handle func(order.Snapshot)) error {
	listener := pq.NewListener(b.dsn, minReconnectInterval, maxReconnectInterval, b.logEvent)
	defer listener.Close()

	if err := listener.Listen(b.channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", b.channel, err)
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					b.logger.WarnContext(ctx, "Listener ping failed", "error", err)
				}
			}()
		case n, ok := <-listener.Notify:
			if !ok {
				return errors.New("postgres listener closed")
			}
			// A nil notification follows a reconnect; updates sent meanwhile are lost.
			if n == nil {
				continue
			}
			snapshot, err := broker.Decode([]byte(n.Extra))
			if err != nil {
				b.logger.WarnContext(ctx, "Dropping malformed order update", "error", err)
				continue
			}
			handle(snapshot)
		}
	}
}

func (b *Broker) logEvent(event pq.ListenerEventType, err error) {
	switch event {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		b.logger.Warn("Postgres listener connection lost", "event", event, "error", err)
	case pq.ListenerEventReconnected:
		b.logger.Info("Postgres listener reconnected")
	case pq.ListenerEventConnected:
	}
}

func (b *Broker) Close() error {
	return b.db.Close()
}
