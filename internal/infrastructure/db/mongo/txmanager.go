package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/commonweb/user-manager/internal/core/ports"
)

// TxManager implements ports.TxManager on MongoDB sessions. The context
// returned by Begin is a session context: repository calls made with it run
// inside the transaction, calls made with any other context do not.
//
// Multi-document transactions require a replica set or mongos; a standalone
// server rejects StartTransaction.
type TxManager struct {
	client *mongo.Client
}

func NewTxManager(client *mongo.Client) *TxManager {
	return &TxManager{client: client}
}

func (m *TxManager) Begin(ctx context.Context) (context.Context, ports.Tx, error) {
	sess, err := m.client.StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("start session: %w", err)
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, nil, fmt.Errorf("start transaction: %w", err)
	}
	return mongo.NewSessionContext(ctx, sess), &sessionTx{sess: sess}, nil
}

type sessionTx struct {
	sess mongo.Session
}

func (t *sessionTx) Commit(ctx context.Context) error {
	// Keep the session alive on failure so the caller can still abort.
	if err := t.sess.CommitTransaction(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	t.sess.EndSession(ctx)
	return nil
}

func (t *sessionTx) Rollback(ctx context.Context) error {
	defer t.sess.EndSession(ctx)
	if err := t.sess.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("abort transaction: %w", err)
	}
	return nil
}
