package repository

import (
	"context"

	domainRepo "github.com/caredesk/pharmacy-api/internal/domain/repository"
	"gorm.io/gorm"
)

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager creates a TxManager backed by GORM transactions.
func NewTxManager(db *gorm.DB) domainRepo.TxManager {
	return &gormTxManager{db: db}
}

// Do opens a transaction and stashes it in the context handed to fn, so
// every repository call inside fn joins it. fn returning an error rolls the
// whole unit of work back.
func (m *gormTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
