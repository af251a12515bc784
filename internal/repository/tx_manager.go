package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// TransactionManager manages database transactions via context injection.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
	RunInTxRetry(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
}

// maxTxRetries bounds the retry loop for lock contention.
const maxTxRetries = 3

// RunInTxRetry behaves like RunInTx but retries the whole function when the
// database reports a serialization failure or deadlock. Everything the
// callback did is rolled back before the retry.
func (t *transactionManager) RunInTxRetry(ctx context.Context, fn func(txCtx context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = t.RunInTx(ctx, fn)
		if err == nil || !retryableTxError(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func retryableTxError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "database is locked")
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
