// Package notify delivers shop events (new orders, password reset requests)
// to whichever sinks are configured. Delivery never blocks or fails a request.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/deko-shop-backend/internal/util"
	"go.uber.org/zap"
)

const (
	EventOrderCreated           = "order.created"
	EventPasswordResetRequested = "password.reset_requested"
)

// Event is the message handed to every sink.
type Event struct {
	ID        string         `json:"event_id"`
	Type      string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	Recipient string         `json:"recipient,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func NewEvent(eventType, recipient string, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Recipient: recipient,
		Payload:   payload,
	}
}

// Notifier is one delivery channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev Event) error
	Close() error
}

// Multi fans an event out to several sinks. A failing sink does not stop the
// others; all failures are returned joined.
type Multi []Notifier

func (m Multi) Name() string { return "multi" }

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			util.NotificationsFailedTotal.WithLabelValues(n.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Dispatcher sends events in the background with a per-event timeout.
type Dispatcher struct {
	notifier Notifier
	log      *zap.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier, log *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: notifier, log: log, timeout: timeout}
}

// Dispatch returns immediately. Delivery errors are logged, never returned.
func (d *Dispatcher) Dispatch(ev Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, ev); err != nil {
			d.log.Warn("notification failed",
				zap.String("event_id", ev.ID),
				zap.String("event_type", ev.Type),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every dispatched event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close waits for in-flight deliveries and closes the sinks.
func (d *Dispatcher) Close() error {
	d.Wait()
	return d.notifier.Close()
}
