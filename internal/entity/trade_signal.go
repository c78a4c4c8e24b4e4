package entity

import (
	"time"

	"gorm.io/datatypes"
)

const SignalBuy = "BUY"

// TradeSignal is a row in the external prediction store. The engine only
// reads this table; the analyzer side owns writes.
type TradeSignal struct {
	ID         int64          `json:"id"`
	Symbol     string         `gorm:"column:symbol" json:"symbol"`
	Signal     string         `json:"signal"`
	Confidence float64        `json:"confidence"`
	Data       datatypes.JSON `gorm:"type:jsonb" json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (TradeSignal) TableName() string {
	return "trade_signals"
}
