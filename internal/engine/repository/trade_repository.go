package repository

import (
	"context"
	"time"

	"golang-paper-trader/internal/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeRepository is the append-only trade log.
type TradeRepository interface {
	Create(ctx context.Context, trade *entity.Trade) error
	GetRecent(ctx context.Context, limit int) ([]entity.Trade, error)
	GetClosedSince(ctx context.Context, since time.Time) ([]entity.Trade, error)
	TotalProfit(ctx context.Context) (decimal.Decimal, error)
}

type tradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a gorm-backed TradeRepository.
func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) Create(ctx context.Context, trade *entity.Trade) error {
	return r.db.WithContext(ctx).Create(trade).Error
}

func (r *tradeRepository) GetRecent(ctx context.Context, limit int) ([]entity.Trade, error) {
	var trades []entity.Trade
	if err := r.db.WithContext(ctx).Order("exit_time DESC").Limit(limit).Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *tradeRepository) GetClosedSince(ctx context.Context, since time.Time) ([]entity.Trade, error) {
	var trades []entity.Trade
	if err := r.db.WithContext(ctx).Where("exit_time >= ?", since).Order("exit_time ASC").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *tradeRepository) TotalProfit(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&entity.Trade{}).
		Select("COALESCE(SUM(profit), 0) AS total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}
