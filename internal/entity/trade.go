package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitReasonProfitTarget ExitReason = "PROFIT_TARGET"
	ExitReasonMaxHoldTime  ExitReason = "MAX_HOLD_TIME"
)

// Trade is the immutable record of a completed round-trip. It is created
// exactly once, when the ledger closes a position, and never mutated.
type Trade struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Symbol          string          `gorm:"index;not null" json:"symbol"`
	EntryTime       time.Time       `gorm:"not null" json:"entry_time"`
	ExitTime        time.Time       `gorm:"not null" json:"exit_time"`
	EntryPrice      decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"entry_price"`
	ExitPrice       decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"exit_price"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	Profit          decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"profit"`
	CommissionTotal decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"commission_total"`
	HoldMinutes     float64         `gorm:"not null" json:"hold_minutes"`
	ExitReason      ExitReason      `gorm:"not null" json:"exit_reason"`
	SourceSignalID  int64           `json:"source_signal_id"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Trade) TableName() string {
	return "trades"
}
