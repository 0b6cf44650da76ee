package notifications

import (
	"context"
	"errors"
	"log/slog"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"
)

// Notifier forwards committed snapshots to subscribers through an update broker.
// Snapshots always take the broker path, even in a single process, so every instance
// hears about an update exactly as often as it was published.
type Notifier struct {
	hub    *Hub
	broker ports.UpdateBroker
	logger *slog.Logger
}

func NewNotifier(hub *Hub, broker ports.UpdateBroker, logger *slog.Logger) *Notifier {
	return &Notifier{
		hub:    hub,
		broker: broker,
		logger: logger.With("component", "notifier"),
	}
}

// Notify publishes every snapshot. Publishing failures are logged and never returned:
// the change is already committed and subscribers can fall back to polling.
func (n *Notifier) Notify(ctx context.Context, snapshots ...order.Snapshot) {
	for _, s := range snapshots {
		if err := n.broker.Publish(ctx, s); err != nil {
			n.logger.ErrorContext(ctx, "Failed to publish order update",
				"order_id", s.ID, "status", s.Status.String(), "error", err)
		}
	}
}

// Run feeds the hub from the broker until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	n.logger.InfoContext(ctx, "Listening for order updates")
	err := n.broker.Listen(ctx, n.hub.Publish)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
