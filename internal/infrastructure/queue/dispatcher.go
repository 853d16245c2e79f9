package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher moves change-notification delivery off the request path. It
// registers with the Notifier as an observer and fans notifications out to
// its own observers from a fixed set of workers, sharded by entity kind so
// notifications for one kind are always delivered in order.
type Dispatcher struct {
	workers []chan domain.Kind
	log     zerolog.Logger

	mu        sync.RWMutex
	observers []ports.Observer
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Kind, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Kind, channelBuffer)
	}
	return d
}

// Register adds a downstream observer. Register once at wiring time, before
// Start.
func (d *Dispatcher) Register(o ports.Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// DataChanged implements ports.Observer. The notification is handed to the
// worker owning the kind's shard; a full buffer drops the notification with
// a warning rather than blocking the committing request.
func (d *Dispatcher) DataChanged(kind domain.Kind) {
	select {
	case d.workers[d.shardIndex(kind)] <- kind:
	default:
		d.log.Warn().Str("kind", string(kind)).Msg("notification buffer full; dropping")
	}
}

// shardIndex maps a kind deterministically to a worker index.
func (d *Dispatcher) shardIndex(kind domain.Kind) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(kind))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Kind) {
	for {
		select {
		case <-ctx.Done():
			return
		case kind, ok := <-ch:
			if !ok {
				return
			}
			d.deliver(id, kind)
		}
	}
}

func (d *Dispatcher) deliver(id int, kind domain.Kind) {
	d.mu.RLock()
	observers := make([]ports.Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, o := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.log.Error().Str("kind", string(kind)).Int("worker_id", id).
						Interface("panic", r).Msg("observer panicked during async delivery")
				}
			}()
			o.DataChanged(kind)
		}()
	}
}
