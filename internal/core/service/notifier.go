package service

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
	"github.com/commonweb/user-manager/internal/metrics"
)

// Notifier fans per-kind change notifications out to registered observers.
// Delivery is synchronous and best-effort: a panicking observer is logged
// and the remaining observers are still notified.
type Notifier struct {
	log zerolog.Logger

	mu        sync.RWMutex
	observers []ports.Observer
}

func NewNotifier(log zerolog.Logger) *Notifier {
	return &Notifier{log: log}
}

// Register adds an observer. Observers cannot be removed; register once at
// wiring time.
func (n *Notifier) Register(o ports.Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, o)
}

// Fire notifies every registered observer that data of the given kind
// changed.
func (n *Notifier) Fire(kind domain.Kind) {
	n.mu.RLock()
	observers := make([]ports.Observer, len(n.observers))
	copy(observers, n.observers)
	n.mu.RUnlock()

	for _, o := range observers {
		n.notify(o, kind)
	}
	metrics.NotificationsFiredTotal.WithLabelValues(string(kind)).Inc()
	n.log.Debug().Str("kind", string(kind)).Int("observers", len(observers)).Msg("change notification fired")
}

func (n *Notifier) notify(o ports.Observer, kind domain.Kind) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Str("kind", string(kind)).Interface("panic", r).Msg("observer panicked during notification")
		}
	}()
	o.DataChanged(kind)
}
