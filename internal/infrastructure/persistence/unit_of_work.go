package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txContextKey struct{}

// GormUnitOfWork implements shared.UnitOfWork on top of a gorm connection.
// The open transaction travels in the context, so repositories built on the
// same Database join it transparently via dbFromContext.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// WithinTransaction runs fn inside a storage transaction. Nested calls join
// the ambient transaction instead of opening a second one.
func (u *GormUnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// txFromContext returns the ambient transaction, or nil when none is open.
func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx
}

// dbFromContext returns the ambient transaction if one is open, otherwise
// the fallback connection bound to ctx.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return fallback.WithContext(ctx)
}
