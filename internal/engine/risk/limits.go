package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// Limits holds every hot-reloadable trading and risk parameter. The engine
// swaps whole snapshots atomically, so readers never observe a partial
// reload. All money values are decimals; fractions (rates, concentration)
// are decimals in [0, 1].
type Limits struct {
	ProfitTarget                decimal.Decimal
	MaxHoldMinutes              int
	PositionSizeAmount          decimal.Decimal
	CommissionRate              decimal.Decimal
	CommissionBaseFee           decimal.Decimal
	MinCommission               decimal.Decimal
	MaxCommission               decimal.Decimal
	MaxPositionConcentrationPct decimal.Decimal
	MaxDailyTrades              int
	MaxDailyLoss                decimal.Decimal
	CooldownSeconds             int
	MinTradeValue               decimal.Decimal
}

// Cooldown returns the per-symbol cooldown as a duration.
func (l Limits) Cooldown() time.Duration {
	return time.Duration(l.CooldownSeconds) * time.Second
}

// PortfolioSnapshot is the consistent view of the portfolio a validation runs
// against. It is built by the ledger under its lock.
type PortfolioSnapshot struct {
	CashBalance      decimal.Decimal
	OpenPositions    map[string]decimal.Decimal // symbol -> current market value
	TotalValue       decimal.Decimal            // cash + open position values
	DailyTradeCount  int
	DailyRealizedPnL decimal.Decimal
	LastTradeAt      map[string]time.Time
}

// OpenIntent is a proposed position open.
type OpenIntent struct {
	Symbol     string
	Price      decimal.Decimal
	Quantity   int64
	SignalID   int64
	Confidence float64
}

// Notional returns quantity x price, the gross value of the entry leg.
func (i OpenIntent) Notional() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(i.Quantity))
}
