package events

import (
	"encoding/json"
	"fmt"
	"time"

	"fundrouter/internal/config"
	"fundrouter/internal/metrics"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Notification event names. One NATS subject per event:
// <prefix>.<category>.<event>.
const (
	EventDepositTracked           = "DepositTracked"
	EventWithdrawalProcessed      = "WithdrawalProcessed"
	EventFeeWithdrawn             = "FeeWithdrawn"
	EventEmergencyWithdrawal      = "EmergencyWithdrawal"
	EventEmergencyModeActivated   = "EmergencyModeActivated"
	EventEmergencyModeDeactivated = "EmergencyModeDeactivated"
	EventServiceUpdated           = "ServiceUpdated"
)

// Broadcaster pushes an event to connected WebSocket clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Notifier publishes success notifications to NATS and, when a hub is
// attached, to WebSocket subscribers. A nil Notifier is valid and publishes
// nothing, so callers never need to guard their emit sites.
type Notifier struct {
	nc     *nats.Conn
	prefix string
	hub    Broadcaster
}

// NewNotifier connects to NATS using the given configuration. An empty URL
// disables NATS publishing; WebSocket broadcasting still works when hub is
// non-nil.
func NewNotifier(cfg config.NATSConfig, hub Broadcaster) (*Notifier, error) {
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "fundrouter"
	}

	n := &Notifier{prefix: prefix, hub: hub}
	if cfg.URL == "" {
		logrus.Info("NATS not configured, notifications limited to WebSocket")
		return n, nil
	}

	opts := []nats.Option{
		nats.Name("fundrouter-notifier"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(time.Duration(cfg.ReconnectWait) * time.Second),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n.nc = nc
	logrus.WithField("url", cfg.URL).Info("connected to NATS")
	return n, nil
}

// Close drains the NATS connection.
func (n *Notifier) Close() {
	if n == nil || n.nc == nil {
		return
	}
	n.nc.Close()
}

func (n *Notifier) DepositTracked(user, asset, amount string) {
	n.publish("ledger", EventDepositTracked, map[string]string{
		"user":   user,
		"asset":  asset,
		"amount": amount,
	})
}

func (n *Notifier) WithdrawalProcessed(user, asset, amount, profit, fee string) {
	n.publish("ledger", EventWithdrawalProcessed, map[string]string{
		"user":   user,
		"asset":  asset,
		"amount": amount,
		"profit": profit,
		"fee":    fee,
	})
}

func (n *Notifier) FeeWithdrawn(asset, amount string) {
	n.publish("admin", EventFeeWithdrawn, map[string]string{
		"asset":  asset,
		"amount": amount,
	})
}

func (n *Notifier) EmergencyWithdrawal(asset, amount string) {
	n.publish("admin", EventEmergencyWithdrawal, map[string]string{
		"asset":  asset,
		"amount": amount,
	})
}

func (n *Notifier) EmergencyModeActivated(by string) {
	n.publish("admin", EventEmergencyModeActivated, map[string]string{"by": by})
}

func (n *Notifier) EmergencyModeDeactivated(by string) {
	n.publish("admin", EventEmergencyModeDeactivated, map[string]string{"by": by})
}

func (n *Notifier) ServiceUpdated(newAddress string) {
	n.publish("admin", EventServiceUpdated, map[string]string{"address": newAddress})
}

// publish is fire-and-forget: a failed publish is logged and counted, never
// surfaced to the operation that emitted it.
func (n *Notifier) publish(category, event string, payload map[string]string) {
	if n == nil {
		return
	}

	if n.hub != nil {
		n.hub.Broadcast(event, payload)
	}

	if n.nc == nil {
		return
	}

	envelope := map[string]interface{}{
		"event":     event,
		"data":      payload,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("failed to encode notification")
		metrics.NotificationFailures.WithLabelValues(event).Inc()
		return
	}

	subject := fmt.Sprintf("%s.%s.%s", n.prefix, category, event)
	if err := n.nc.Publish(subject, data); err != nil {
		logrus.WithError(err).WithField("subject", subject).Error("failed to publish notification")
		metrics.NotificationFailures.WithLabelValues(event).Inc()
		return
	}
	metrics.NotificationsPublished.WithLabelValues(event).Inc()
}
