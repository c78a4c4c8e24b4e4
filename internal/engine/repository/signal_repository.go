package repository

import (
	"context"
	"time"

	"golang-paper-trader/internal/entity"

	"gorm.io/gorm"
)

// SignalRepository reads buy signals from the external prediction store.
type SignalRepository interface {
	NewBuySignalsSince(ctx context.Context, since time.Time) ([]entity.TradeSignal, error)
}

type signalRepository struct {
	db *gorm.DB
}

// NewSignalRepository creates a gorm-backed SignalRepository.
func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

func (r *signalRepository) NewBuySignalsSince(ctx context.Context, since time.Time) ([]entity.TradeSignal, error) {
	var signals []entity.TradeSignal
	err := r.db.WithContext(ctx).
		Where("signal = ? AND created_at > ?", entity.SignalBuy, since).
		Order("created_at ASC").
		Find(&signals).Error
	if err != nil {
		return nil, err
	}
	return signals, nil
}
