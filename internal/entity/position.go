package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a simulated holding in one symbol. The positions table holds
// only open positions; the row is removed when the position closes and an
// immutable Trade is written instead.
type Position struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Symbol         string          `gorm:"uniqueIndex;not null" json:"symbol"`
	Quantity       int64           `gorm:"not null" json:"quantity"`
	EntryPrice     decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"entry_price"`
	EntryTime      time.Time       `gorm:"not null" json:"entry_time"`
	InvestedAmount decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"invested_amount"`
	CommissionPaid decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"commission_paid"`
	TargetProfit   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"target_profit"`
	MaxHoldMinutes int             `gorm:"not null" json:"max_hold_minutes"`
	SourceSignalID int64           `json:"source_signal_id"`
	Confidence     float64         `json:"confidence"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Mark-to-market fields maintained in memory by the ledger.
	CurrentPrice  decimal.Decimal `gorm:"-" json:"current_price"`
	MarketValue   decimal.Decimal `gorm:"-" json:"market_value"`
	UnrealizedPnL decimal.Decimal `gorm:"-" json:"unrealized_pnl"`
}

func (Position) TableName() string {
	return "positions"
}
