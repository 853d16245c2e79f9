package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/commonweb/user-manager/internal/core/domain"
	"github.com/commonweb/user-manager/internal/core/ports"
	"github.com/commonweb/user-manager/internal/metrics"
)

type txState int

const (
	txNotStarted txState = iota
	txInProgress
	txCommitted
	txRolledBack
)

// ChangeContext is the single unit-of-work type binding repository
// mutations to one underlying transaction. It accumulates the distinct
// entities changed, deduplicated per kind, and fires one notification per
// affected kind once the transaction has committed.
//
// Whether the lifecycle is caller-owned (shared) or manager-owned is
// resolved once at construction instead of being threaded through every
// call as a flag.
type ChangeContext struct {
	txm      ports.TxManager
	notifier *Notifier
	shared   bool
	log      zerolog.Logger

	mu      sync.Mutex
	state   txState
	txCtx   context.Context
	tx      ports.Tx
	changed map[domain.Kind]map[string]struct{}
}

// NewChangeContext returns an open-ready change context. shared marks the
// lifecycle as caller-owned; the data manager only finalizes contexts it
// created itself.
func NewChangeContext(txm ports.TxManager, notifier *Notifier, shared bool, log zerolog.Logger) *ChangeContext {
	return &ChangeContext{
		txm:      txm,
		notifier: notifier,
		shared:   shared,
		log:      log,
		changed:  make(map[domain.Kind]map[string]struct{}),
	}
}

// Shared reports whether the caller owns commit/rollback/notify.
func (c *ChangeContext) Shared() bool { return c.shared }

// Begin starts the underlying transaction. Repeated calls while the
// transaction is open are no-ops, so nested callers can share one context
// without double-starting; calling Begin on a closed context fails.
func (c *ChangeContext) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case txCommitted, txRolledBack:
		return &domain.TxError{Op: "begin", Err: domain.ErrTxClosed}
	case txInProgress:
		return nil
	}

	txCtx, tx, err := c.txm.Begin(ctx)
	if err != nil {
		return &domain.TxError{Op: "begin", Err: err}
	}
	c.txCtx = txCtx
	c.tx = tx
	c.state = txInProgress
	return nil
}

// Context returns the transaction-bound context for repository calls. Valid
// only between Begin and Commit/Rollback; before Begin it falls back to the
// background context.
func (c *ChangeContext) Context() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.txCtx == nil {
		return context.Background()
	}
	return c.txCtx
}

// Record adds the entity identity to the change set for its kind.
// Recording the same entity twice is an idempotent union.
func (c *ChangeContext) Record(kind domain.Kind, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == txCommitted || c.state == txRolledBack {
		return &domain.TxError{Op: "record", Err: domain.ErrTxClosed}
	}
	set, ok := c.changed[kind]
	if !ok {
		set = make(map[string]struct{})
		c.changed[kind] = set
	}
	set[name] = struct{}{}
	return nil
}

// Commit commits the underlying transaction exactly once. Repeated calls
// after a successful commit are no-ops; committing before Begin or after a
// rollback fails.
func (c *ChangeContext) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case txNotStarted:
		return &domain.TxError{Op: "commit", Err: domain.ErrTxNotStarted}
	case txCommitted:
		return nil
	case txRolledBack:
		return &domain.TxError{Op: "commit", Err: domain.ErrTxClosed}
	}

	if err := c.tx.Commit(ctx); err != nil {
		// The transaction stays open so the caller can still roll back.
		return &domain.TxError{Op: "commit", Err: err}
	}
	c.state = txCommitted
	metrics.TransactionsTotal.WithLabelValues("committed").Inc()
	return nil
}

// Rollback rolls the underlying transaction back. Repeated rollbacks
// collapse to one; rolling back before Begin or after a commit fails.
func (c *ChangeContext) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case txNotStarted:
		return &domain.TxError{Op: "rollback", Err: domain.ErrTxNotStarted}
	case txRolledBack:
		return nil
	case txCommitted:
		return &domain.TxError{Op: "rollback", Err: domain.ErrTxClosed}
	}

	// Close the context either way; a failed rollback leaves nothing the
	// caller could retry against.
	c.state = txRolledBack
	metrics.TransactionsTotal.WithLabelValues("rolled_back").Inc()
	if err := c.tx.Rollback(ctx); err != nil {
		return &domain.TxError{Op: "rollback", Err: err}
	}
	return nil
}

// SendNotifications fires one notification per kind that has a non-empty
// change set, in stable kind order. Calling it before a successful commit
// would announce changes that may be rolled back, so it logs and does
// nothing instead. A second call after a successful round is a no-op.
func (c *ChangeContext) SendNotifications() {
	c.mu.Lock()
	if c.state != txCommitted {
		c.mu.Unlock()
		c.log.Warn().Msg("change notifications requested before commit; skipping")
		return
	}
	changed := c.changed
	c.changed = make(map[domain.Kind]map[string]struct{})
	c.mu.Unlock()

	for _, kind := range domain.Kinds() {
		if len(changed[kind]) > 0 {
			c.notifier.Fire(kind)
		}
	}
}
