package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/logger"
)

var (
	// ErrQueueFull is returned when the dispatcher cannot accept more events
	ErrQueueFull = errors.New("event queue is full")

	// ErrDispatcherStopped is returned after Run has returned
	ErrDispatcherStopped = errors.New("event dispatcher stopped")
)

// Sink delivers a serialized event. RabbitMQPublisher is the production sink.
type Sink interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// DispatcherOptions tunes a Dispatcher. Zero values use the defaults.
type DispatcherOptions struct {
	QueueSize    int
	Workers      int
	MaxAttempts  int
	RetryBackoff time.Duration
	DrainTimeout time.Duration
}

// Dispatcher implements domain.EventPublisher with a bounded in-memory queue
// drained by a fixed set of workers, so a slow broker never blocks a committed
// ledger operation.
type Dispatcher struct {
	sink     Sink
	currency string
	opts     DispatcherOptions
	queue    chan TransactionRecordedEvent

	// mu orders enqueues before the final drain: Run sets stopped under the
	// write lock, so every accepted event is in the queue when draining starts.
	mu      sync.RWMutex
	stopped bool
	dropped atomic.Int64
}

// NewDispatcher creates a Dispatcher. Call Run to start delivering.
func NewDispatcher(sink Sink, currencyCode string, opts DispatcherOptions) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 200 * time.Millisecond
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 5 * time.Second
	}

	return &Dispatcher{
		sink:     sink,
		currency: currencyCode,
		opts:     opts,
		queue:    make(chan TransactionRecordedEvent, opts.QueueSize),
	}
}

// PublishTransactions enqueues one event per record without blocking.
func (d *Dispatcher) PublishTransactions(ctx context.Context, records []domain.TransactionEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.dropped.Add(int64(len(records)))
		return ErrDispatcherStopped
	}

	for i, r := range records {
		select {
		case d.queue <- NewTransactionRecordedEvent(r, d.currency):
		default:
			d.dropped.Add(int64(len(records) - i))
			return fmt.Errorf("%w: dropped %d of %d events", ErrQueueFull, len(records)-i, len(records))
		}
	}
	return nil
}

// Dropped returns how many events were never delivered: rejected at enqueue,
// or given up on after retries.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Run delivers queued events until ctx is cancelled, then drains what is
// left within DrainTimeout.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		g.Go(func() error {
			d.work(gctx)
			return nil
		})
	}
	err := g.Wait()

	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	drained := d.drain(ctx)
	logger.FromContext(ctx).Info().
		Int("drained", drained).
		Int64("dropped", d.dropped.Load()).
		Msg("event dispatcher stopped")
	return err
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) drain(parent context.Context) int {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.opts.DrainTimeout)
	defer cancel()

	drained := 0
	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
			drained++
		default:
			return drained
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event TransactionRecordedEvent) {
	log := logger.FromContext(ctx).With().
		Str("event_id", event.EventID).
		Str("transaction_id", event.TransactionID).
		Logger()

	body, err := json.Marshal(event)
	if err != nil {
		d.dropped.Add(1)
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}

	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		err = d.sink.Publish(ctx, event.RoutingKey(), body)
		if err == nil {
			log.Debug().Str("routing_key", event.RoutingKey()).Msg("event published")
			return
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("failed to publish event")

		if attempt == d.opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			d.dropped.Add(1)
			log.Error().Err(ctx.Err()).Msg("dropping event")
			return
		case <-time.After(d.opts.RetryBackoff * time.Duration(attempt)):
		}
	}

	d.dropped.Add(1)
	log.Error().Err(err).Msg("dropping event after retries")
}
