package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is a periodic point-in-time record of the portfolio,
// written on a schedule for recovery and reporting.
type PortfolioSnapshot struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	TakenAt          time.Time       `gorm:"not null;index" json:"taken_at"`
	CashBalance      decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"cash_balance"`
	OpenPositions    int             `gorm:"not null" json:"open_positions"`
	TotalValue       decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"total_value"`
	RealizedProfit   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"realized_profit"`
	DailyTradeCount  int             `gorm:"not null" json:"daily_trade_count"`
	DailyRealizedPnL decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"daily_realized_pnl"`
}

func (PortfolioSnapshot) TableName() string {
	return "portfolio_snapshots"
}
