package repository

import (
	"context"

	"golang-paper-trader/internal/entity"

	"gorm.io/gorm"
)

// PositionRepository persists open positions. Rows exist only while the
// position is open; Close removes the row after the trade is recorded.
type PositionRepository interface {
	Create(ctx context.Context, position *entity.Position) error
	Delete(ctx context.Context, symbol string) error
	GetOpen(ctx context.Context) ([]entity.Position, error)
}

type positionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a gorm-backed PositionRepository.
func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) Create(ctx context.Context, position *entity.Position) error {
	return r.db.WithContext(ctx).Create(position).Error
}

func (r *positionRepository) Delete(ctx context.Context, symbol string) error {
	return r.db.WithContext(ctx).Where("symbol = ?", symbol).Delete(&entity.Position{}).Error
}

func (r *positionRepository) GetOpen(ctx context.Context) ([]entity.Position, error) {
	var positions []entity.Position
	if err := r.db.WithContext(ctx).Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}
