package repository

import (
	"context"

	"golang-paper-trader/internal/entity"

	"gorm.io/gorm"
)

// SnapshotRepository persists periodic portfolio snapshots.
type SnapshotRepository interface {
	Create(ctx context.Context, snapshot *entity.PortfolioSnapshot) error
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a gorm-backed SnapshotRepository.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Create(ctx context.Context, snapshot *entity.PortfolioSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}
