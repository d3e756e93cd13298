package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// ErrTxSlotTimeout is returned when no transaction slot frees up within the start-wait window.
var ErrTxSlotTimeout = errors.New("transaction slot not acquired within start-wait timeout")

// TxConfig bounds how long callers wait for, and hold, a database transaction.
type TxConfig struct {
	MaxConcurrent int64
	StartWait     time.Duration
	Timeout       time.Duration
	Isolation     sql.IsolationLevel
}

// TransactionManager manages database transactions via context injection.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db    *gorm.DB
	cfg   TxConfig
	slots *semaphore.Weighted
}

func NewTransactionManager(db *gorm.DB, cfg TxConfig) TransactionManager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 16
	}
	if cfg.StartWait <= 0 {
		cfg.StartWait = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Isolation == sql.LevelDefault {
		cfg.Isolation = sql.LevelReadCommitted
	}
	return &transactionManager{db: db, cfg: cfg, slots: semaphore.NewWeighted(cfg.MaxConcurrent)}
}

// RunInTx runs fn inside a transaction. A call made with a context that already carries a
// transaction joins it through a savepoint instead of opening a second one.
func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.Transaction(func(nested *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey, nested))
		})
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, t.cfg.StartWait)
	err := t.slots.Acquire(waitCtx, 1)
	cancelWait()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTxSlotTimeout
	}
	defer t.slots.Release(1)

	execCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	return t.db.WithContext(execCtx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(execCtx, txKey, tx)
		return fn(txCtx)
	}, &sql.TxOptions{Isolation: t.cfg.Isolation})
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}
