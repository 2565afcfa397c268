// Package notify delivers cancellation notices. Delivery is best-effort and
// asynchronous: the services enqueue and move on, a failed or dropped notice
// never affects the cancellation that produced it.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"menza/internal/metrics"
	"menza/internal/models"
)

// Notice describes a cancelled reservation for delivery.
type Notice struct {
	Reservation models.Reservation
	CanteenName string
	Reason      string
}

// Reasons a reservation gets cancelled on the student's behalf.
const (
	ReasonRestriction    = "restriction"
	ReasonCanteenDeleted = "canteen_deleted"
)

// Sender performs the actual delivery of a single notice.
type Sender interface {
	Send(ctx context.Context, n Notice) error
}

// Dispatcher queues notices and delivers them on a background worker with
// rate limiting. Enqueueing never blocks; when the queue is full the notice
// is dropped and logged.
type Dispatcher struct {
	sender  Sender
	queue   chan Notice
	limiter *rate.Limiter
	logger  *zerolog.Logger

	startOnce sync.Once
	done      chan struct{}
}

// DispatcherConfig controls queue depth and outbound rate.
type DispatcherConfig struct {
	QueueSize int
	PerSecond float64
	Burst     int
}

// DefaultDispatcherConfig returns the default configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{QueueSize: 256, PerSecond: 20, Burst: 30}
}

// NewDispatcher creates a dispatcher around sender.
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *zerolog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = DefaultDispatcherConfig().PerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultDispatcherConfig().Burst
	}
	return &Dispatcher{
		sender:  sender,
		queue:   make(chan Notice, cfg.QueueSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start launches the delivery worker. It returns immediately; the worker
// stops when ctx is cancelled and the queue has drained.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go d.run(ctx)
	})
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case n := <-d.queue:
			d.deliver(ctx, n)
		case <-ctx.Done():
			// Drain whatever is already queued, then stop.
			for {
				select {
				case n := <-d.queue:
					d.deliver(context.Background(), n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n Notice) {
	// A notice already dequeued still gets delivered during shutdown.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := d.limiter.Wait(ctx); err != nil {
		d.logger.Warn().Err(err).Str("reservation_id", n.Reservation.ID).Msg("notification rate limiter interrupted")
		metrics.IncNotification("dropped")
		return
	}
	if err := d.sender.Send(ctx, n); err != nil {
		d.logger.Error().Err(err).
			Str("reservation_id", n.Reservation.ID).
			Str("reason", n.Reason).
			Msg("failed to send cancellation notice")
		metrics.IncNotification("failed")
		return
	}
	metrics.IncNotification("sent")
}

// ReservationCancelled enqueues a notice without blocking.
func (d *Dispatcher) ReservationCancelled(r models.Reservation, canteenName, reason string) {
	select {
	case d.queue <- Notice{Reservation: r, CanteenName: canteenName, Reason: reason}:
	default:
		d.logger.Warn().Str("reservation_id", r.ID).Msg("notification queue full, notice dropped")
		metrics.IncNotification("dropped")
	}
}

// Wait blocks until the worker has stopped. Call after cancelling the
// context passed to Start.
func (d *Dispatcher) Wait() {
	<-d.done
}

// FormatNotice renders a human-readable cancellation message.
func FormatNotice(n Notice) string {
	verb := "cancelled"
	if n.Reason == ReasonRestriction {
		verb = "cancelled due to restricted working hours"
	}
	return fmt.Sprintf("Reservation %s at %s on %s %s (%d min) was %s.",
		n.Reservation.ID,
		n.CanteenName,
		n.Reservation.Date.Format(models.DateFormat),
		n.Reservation.Time,
		n.Reservation.Duration,
		verb,
	)
}
