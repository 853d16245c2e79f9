package ports

import "context"

// Tx is a handle on one underlying transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager begins transactions against the underlying store. The returned
// context carries the transaction and must be passed to every repository
// call made within it.
type TxManager interface {
	Begin(ctx context.Context) (context.Context, Tx, error)
}
