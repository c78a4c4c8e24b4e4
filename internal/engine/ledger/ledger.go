package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/internal/engine/risk"
	"golang-paper-trader/internal/entity"
	"golang-paper-trader/pkg/logger"

	"github.com/shopspring/decimal"
)

var (
	// ErrPositionExists means a second open was attempted for a symbol that
	// already has an open position. The existing position is never overwritten.
	ErrPositionExists = errors.New("open position already exists for symbol")

	// ErrPositionNotFound means the symbol has no open position. A second
	// Close on the same position returns this, which keeps Close idempotent.
	ErrPositionNotFound = errors.New("no open position for symbol")

	// ErrZeroQuantity means the position size budget buys less than one share
	// at the current price.
	ErrZeroQuantity = errors.New("computed quantity is zero")
)

// ValidationError carries the full risk decision of a rejected open so the
// caller can log every violated check.
type ValidationError struct {
	Decision risk.Decision
}

func (e *ValidationError) Error() string {
	codes := make([]string, 0, len(e.Decision.Violations))
	for _, v := range e.Decision.Violations {
		codes = append(codes, v.Code)
	}
	return fmt.Sprintf("trade rejected: %s", strings.Join(codes, ", "))
}

// Ledger is the single owner of the open-position set and the simulated
// cash balance. Every mutation is serialized through its mutex; callers
// never touch the underlying maps directly.
type Ledger struct {
	mu           sync.Mutex
	logger       *logger.Logger
	positionRepo repository.PositionRepository

	cash                decimal.Decimal
	positions           map[string]*entity.Position
	lastTradeAt         map[string]time.Time
	dailyTradeCount     int
	dailyRealizedPnL    decimal.Decimal
	totalRealizedProfit decimal.Decimal
}

// New creates a Ledger with the given starting cash balance.
func New(positionRepo repository.PositionRepository, log *logger.Logger, initialCash decimal.Decimal) *Ledger {
	return &Ledger{
		logger:           log,
		positionRepo:     positionRepo,
		cash:             initialCash,
		positions:        make(map[string]*entity.Position),
		lastTradeAt:      make(map[string]time.Time),
		dailyRealizedPnL: decimal.Zero,
	}
}

// Restore loads persisted open positions and rebuilds day counters from the
// trades already closed today. Called once at startup, before any timer runs.
func (l *Ledger) Restore(ctx context.Context, totalProfit decimal.Decimal, closedToday []entity.Trade, dayStart time.Time) error {
	positions, err := l.positionRepo.GetOpen(ctx)
	if err != nil {
		return fmt.Errorf("load open positions: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range positions {
		p := positions[i]
		// Marks are not persisted; seed them from the entry until the first
		// evaluator pass reprices.
		p.CurrentPrice = p.EntryPrice
		p.MarketValue = p.InvestedAmount
		p.UnrealizedPnL = decimal.Zero
		l.positions[p.Symbol] = &p
		l.cash = l.cash.Sub(p.InvestedAmount).Sub(p.CommissionPaid)
		l.lastTradeAt[p.Symbol] = p.EntryTime
		if !p.EntryTime.Before(dayStart) {
			l.dailyTradeCount++
		}
	}

	l.totalRealizedProfit = totalProfit
	l.cash = l.cash.Add(totalProfit)

	for _, t := range closedToday {
		l.dailyTradeCount++
		l.dailyRealizedPnL = l.dailyRealizedPnL.Add(t.Profit)
		if t.ExitTime.After(l.lastTradeAt[t.Symbol]) {
			l.lastTradeAt[t.Symbol] = t.ExitTime
		}
	}

	l.logger.Info("Ledger restored",
		logger.Field("open_positions", len(l.positions)),
		logger.StringField("cash_balance", l.cash.StringFixed(2)),
		logger.Field("daily_trade_count", l.dailyTradeCount))

	return nil
}

// Open validates and opens a position for the signal at the given price.
// The position row is persisted before the in-memory state changes; a
// persistence failure leaves the ledger untouched.
func (l *Ledger) Open(ctx context.Context, signal entity.TradeSignal, price decimal.Decimal, limits risk.Limits, now time.Time) (*entity.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.positions[signal.Symbol]; exists {
		return nil, fmt.Errorf("open %s: %w", signal.Symbol, ErrPositionExists)
	}

	quantity := limits.PositionSizeAmount.Div(price).IntPart()
	if quantity <= 0 {
		return nil, fmt.Errorf("open %s at %s: %w", signal.Symbol, price, ErrZeroQuantity)
	}

	intent := risk.OpenIntent{
		Symbol:     signal.Symbol,
		Price:      price,
		Quantity:   quantity,
		SignalID:   signal.ID,
		Confidence: signal.Confidence,
	}
	decision := risk.Validate(intent, l.snapshotLocked(), limits, now)
	if !decision.Allowed {
		return nil, &ValidationError{Decision: decision}
	}

	notional := intent.Notional()
	commission := risk.Commission(notional, limits)

	position := &entity.Position{
		Symbol:         signal.Symbol,
		Quantity:       quantity,
		EntryPrice:     price,
		EntryTime:      now,
		InvestedAmount: notional,
		CommissionPaid: commission,
		TargetProfit:   limits.ProfitTarget,
		MaxHoldMinutes: limits.MaxHoldMinutes,
		SourceSignalID: signal.ID,
		Confidence:     signal.Confidence,
		CurrentPrice:   price,
		MarketValue:    notional,
		UnrealizedPnL:  decimal.Zero,
	}

	if err := l.positionRepo.Create(ctx, position); err != nil {
		return nil, fmt.Errorf("persist position %s: %w", signal.Symbol, err)
	}

	l.positions[signal.Symbol] = position
	l.cash = l.cash.Sub(notional).Sub(commission)
	l.lastTradeAt[signal.Symbol] = now
	l.dailyTradeCount++

	return position, nil
}

// Close closes the open position for symbol at exitPrice and returns the
// resulting immutable Trade. A second Close for the same position returns
// ErrPositionNotFound, so no double Trade can be produced.
func (l *Ledger) Close(ctx context.Context, symbol string, exitPrice decimal.Decimal, reason entity.ExitReason, holdMinutes float64, limits risk.Limits, now time.Time) (*entity.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	position, exists := l.positions[symbol]
	if !exists {
		return nil, fmt.Errorf("close %s: %w", symbol, ErrPositionNotFound)
	}

	proceeds := exitPrice.Mul(decimal.NewFromInt(position.Quantity))
	exitCommission := risk.Commission(proceeds, limits)
	totalCommission := position.CommissionPaid.Add(exitCommission)
	profit := proceeds.Sub(position.InvestedAmount).Sub(totalCommission)

	if err := l.positionRepo.Delete(ctx, symbol); err != nil {
		return nil, fmt.Errorf("remove position %s: %w", symbol, err)
	}

	delete(l.positions, symbol)
	l.cash = l.cash.Add(proceeds).Sub(exitCommission)
	l.dailyRealizedPnL = l.dailyRealizedPnL.Add(profit)
	l.totalRealizedProfit = l.totalRealizedProfit.Add(profit)
	l.lastTradeAt[symbol] = now

	trade := &entity.Trade{
		Symbol:          symbol,
		EntryTime:       position.EntryTime,
		ExitTime:        now,
		EntryPrice:      position.EntryPrice,
		ExitPrice:       exitPrice,
		Quantity:        position.Quantity,
		Profit:          profit,
		CommissionTotal: totalCommission,
		HoldMinutes:     holdMinutes,
		ExitReason:      reason,
		SourceSignalID:  position.SourceSignalID,
	}

	return trade, nil
}

// Reprice updates the mark-to-market fields of an open position. It never
// triggers a close.
func (l *Ledger) Reprice(symbol string, price decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	position, exists := l.positions[symbol]
	if !exists {
		return
	}
	position.CurrentPrice = price
	position.MarketValue = price.Mul(decimal.NewFromInt(position.Quantity))
	position.UnrealizedPnL = position.MarketValue.Sub(position.InvestedAmount)
}

// Positions returns a copy of the open positions.
func (l *Ledger) Positions() []entity.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make([]entity.Position, 0, len(l.positions))
	for _, p := range l.positions {
		positions = append(positions, *p)
	}
	return positions
}

// Snapshot returns a consistent portfolio view for risk validation.
func (l *Ledger) Snapshot() risk.PortfolioSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() risk.PortfolioSnapshot {
	openValues := make(map[string]decimal.Decimal, len(l.positions))
	total := l.cash
	for symbol, p := range l.positions {
		openValues[symbol] = p.MarketValue
		total = total.Add(p.MarketValue)
	}

	lastTrades := make(map[string]time.Time, len(l.lastTradeAt))
	for symbol, t := range l.lastTradeAt {
		lastTrades[symbol] = t
	}

	return risk.PortfolioSnapshot{
		CashBalance:      l.cash,
		OpenPositions:    openValues,
		TotalValue:       total,
		DailyTradeCount:  l.dailyTradeCount,
		DailyRealizedPnL: l.dailyRealizedPnL,
		LastTradeAt:      lastTrades,
	}
}

// Stats returns a persistable snapshot of the portfolio.
func (l *Ledger) Stats(now time.Time) entity.PortfolioSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := l.cash
	for _, p := range l.positions {
		total = total.Add(p.MarketValue)
	}

	return entity.PortfolioSnapshot{
		TakenAt:          now,
		CashBalance:      l.cash,
		OpenPositions:    len(l.positions),
		TotalValue:       total,
		RealizedProfit:   l.totalRealizedProfit,
		DailyTradeCount:  l.dailyTradeCount,
		DailyRealizedPnL: l.dailyRealizedPnL,
	}
}

// DailyReset zeroes the per-day counters. Scheduled at midnight exchange time.
func (l *Ledger) DailyReset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dailyTradeCount = 0
	l.dailyRealizedPnL = decimal.Zero
	l.logger.Info("Daily counters reset")
}
