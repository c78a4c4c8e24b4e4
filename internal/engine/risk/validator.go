package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Violation is one failed risk check.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of validating a proposed trade. Every failing
// check is recorded so the engine can log all of them; the first violation
// is the headline rejection reason.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason returns the headline rejection code, or "" when allowed.
func (d Decision) Reason() string {
	if d.Allowed || len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Code
}

// Validate evaluates a proposed open against the portfolio snapshot and the
// current limits. It is a pure function of its inputs.
func Validate(intent OpenIntent, snap PortfolioSnapshot, limits Limits, now time.Time) Decision {
	d := Decision{Allowed: true}

	if snap.DailyTradeCount >= limits.MaxDailyTrades {
		d.add("MAX_DAILY_TRADES",
			fmt.Sprintf("daily trade count %d >= max %d", snap.DailyTradeCount, limits.MaxDailyTrades))
	}

	if _, exists := snap.OpenPositions[intent.Symbol]; exists {
		d.add("POSITION_EXISTS",
			fmt.Sprintf("an open position for %s already exists", intent.Symbol))
	}

	if last, ok := snap.LastTradeAt[intent.Symbol]; ok {
		if since := now.Sub(last); since < limits.Cooldown() {
			d.add("COOLDOWN_ACTIVE",
				fmt.Sprintf("last trade on %s was %s ago, cooldown is %s", intent.Symbol, since.Round(time.Second), limits.Cooldown()))
		}
	}

	notional := intent.Notional()
	if notional.LessThan(limits.MinTradeValue) {
		d.add("TRADE_VALUE_TOO_SMALL",
			fmt.Sprintf("notional %s below minimum trade value %s", notional, limits.MinTradeValue))
	}
	if notional.GreaterThan(limits.PositionSizeAmount) {
		d.add("POSITION_TOO_LARGE",
			fmt.Sprintf("notional %s exceeds position size budget %s", notional, limits.PositionSizeAmount))
	}

	if snap.TotalValue.IsPositive() {
		concentration := notional.Div(snap.TotalValue)
		if concentration.GreaterThan(limits.MaxPositionConcentrationPct) {
			d.add("CONCENTRATION_EXCEEDED",
				fmt.Sprintf("position would be %s of portfolio, max is %s",
					concentration.Round(4), limits.MaxPositionConcentrationPct))
		}
	}

	totalCost := notional.Add(Commission(notional, limits))
	if snap.CashBalance.LessThan(totalCost) {
		d.add("INSUFFICIENT_CASH",
			fmt.Sprintf("total cost %s exceeds cash balance %s", totalCost, snap.CashBalance))
	}

	if snap.DailyRealizedPnL.LessThanOrEqual(limits.MaxDailyLoss.Neg()) {
		d.add("DAILY_LOSS_LIMIT",
			fmt.Sprintf("daily realized pnl %s breached loss limit %s", snap.DailyRealizedPnL, limits.MaxDailyLoss.Neg()))
	}

	return d
}

// ValidateClose evaluates a proposed close. Closes are always permitted when
// the position exists; loss limits never trap an open position.
func ValidateClose(symbol string, snap PortfolioSnapshot) Decision {
	d := Decision{Allowed: true}
	if _, exists := snap.OpenPositions[symbol]; !exists {
		d.add("POSITION_NOT_FOUND",
			fmt.Sprintf("no open position for %s", symbol))
	}
	return d
}

// Commission computes the simulated commission for one trade leg:
// clamp(baseFee + notional x rate, min, max), rounded half-up to cents.
func Commission(notional decimal.Decimal, limits Limits) decimal.Decimal {
	fee := limits.CommissionBaseFee.Add(notional.Mul(limits.CommissionRate))
	if fee.LessThan(limits.MinCommission) {
		fee = limits.MinCommission
	}
	if fee.GreaterThan(limits.MaxCommission) {
		fee = limits.MaxCommission
	}
	// Round is half away from zero, which is half-up for a non-negative fee.
	return fee.Round(2)
}
