// Package notify delivers best-effort messages about newly registered
// complaints: a confirmation email to the citizen and, optionally, an
// announcement to the municipal staff chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notification carries the complaint details a notifier may render.
type Notification struct {
	ComplaintID         string
	FullName            string
	Email               string
	Mobile              string
	Latitude            string
	Longitude           string
	LocationDescription string
}

// Vars exposes the notification as template placeholders.
func (n Notification) Vars() map[string]string {
	return map[string]string{
		"complaint_id": n.ComplaintID,
		"full_name":    n.FullName,
		"email":        n.Email,
		"mobile":       n.Mobile,
		"latitude":     n.Latitude,
		"longitude":    n.Longitude,
		"location":     n.LocationDescription,
	}
}

// Notifier sends a single notification.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Nop is a Notifier that only logs; used when a channel is not configured.
type Nop struct {
	Channel string
	Logger  *zap.Logger
}

func (n Nop) Name() string { return n.Channel }

func (n Nop) Notify(ctx context.Context, msg Notification) error {
	if n.Logger != nil {
		n.Logger.Debug("notification channel not configured, skipping",
			zap.String("channel", n.Channel),
			zap.String("complaint_id", msg.ComplaintID))
	}
	return nil
}

// Dispatcher fans a notification out to every notifier on a background
// goroutine. Failures are logged and never reach the caller.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout, logger: logger}
}

// Dispatch returns immediately.
func (d *Dispatcher) Dispatch(n Notification) {
	if len(d.notifiers) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.send(ctx, n); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("complaint_id", n.ComplaintID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every in-flight dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) send(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range d.notifiers {
		if err := d.sendOne(ctx, notifier, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		d.logger.Debug("notification sent",
			zap.String("channel", notifier.Name()),
			zap.String("complaint_id", n.ComplaintID))
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) sendOne(ctx context.Context, notifier Notifier, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panicked: %v", r)
		}
	}()
	return notifier.Notify(ctx, n)
}
