package service

import (
	"context"
	"errors"
	"time"

	"golang-paper-trader/internal/engine/calendar"
	"golang-paper-trader/internal/engine/ledger"
	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/internal/engine/risk"
	"golang-paper-trader/internal/entity"
	"golang-paper-trader/pkg/logger"

	"github.com/shopspring/decimal"
)

// Recorder is the sink for executed trades and opened positions.
type Recorder interface {
	RecordTrade(ctx context.Context, trade *entity.Trade) error
	RecordOpen(ctx context.Context, position *entity.Position)
}

// ExitEvaluator decides, for every open position, whether it must close and
// why. Profit target is checked before max hold time, so it wins when both
// fire on the same tick.
type ExitEvaluator struct {
	logger   *logger.Logger
	cal      *calendar.Calendar
	oracle   repository.PriceOracle
	ledger   *ledger.Ledger
	recorder Recorder
	limits   func() risk.Limits
	now      func() time.Time
}

// NewExitEvaluator creates an ExitEvaluator. now may be nil, in which case
// the wall clock is used.
func NewExitEvaluator(
	log *logger.Logger,
	cal *calendar.Calendar,
	oracle repository.PriceOracle,
	ldg *ledger.Ledger,
	recorder Recorder,
	limits func() risk.Limits,
	now func() time.Time,
) *ExitEvaluator {
	if now == nil {
		now = time.Now
	}
	return &ExitEvaluator{
		logger:   log,
		cal:      cal,
		oracle:   oracle,
		ledger:   ldg,
		recorder: recorder,
		limits:   limits,
		now:      now,
	}
}

// EvaluateAll runs one evaluation pass over every open position. When the
// market is closed the pass is skipped entirely: elapsed calendar time while
// the exchange is shut must never close a position. Only ErrFatalStorage is
// returned; every other failure is contained per symbol.
func (e *ExitEvaluator) EvaluateAll(ctx context.Context) error {
	now := e.now().In(e.cal.Location())
	if !e.cal.IsOpen(now) {
		e.logger.Debug("Market closed, skipping exit evaluation")
		return nil
	}

	limits := e.limits()
	for _, position := range e.ledger.Positions() {
		if err := e.evaluate(ctx, position, limits, now); err != nil {
			if errors.Is(err, ErrFatalStorage) {
				return err
			}
			e.logger.Error("Exit evaluation failed",
				logger.StringField("symbol", position.Symbol),
				logger.ErrorField(err))
		}
	}
	return nil
}

func (e *ExitEvaluator) evaluate(ctx context.Context, position entity.Position, limits risk.Limits, now time.Time) error {
	quote, err := e.oracle.GetCurrentPrice(ctx, position.Symbol)
	if err != nil {
		// Transient: the position stays open and is re-evaluated next cycle.
		e.logger.Info("Price unavailable, skipping symbol this cycle",
			logger.StringField("symbol", position.Symbol),
			logger.ErrorField(err))
		return nil
	}

	e.ledger.Reprice(position.Symbol, quote.Price)

	proceeds := quote.Price.Mul(decimal.NewFromInt(position.Quantity))
	exitCommission := risk.Commission(proceeds, limits)
	unrealized := proceeds.Sub(exitCommission).Sub(position.InvestedAmount)
	heldMinutes := e.cal.OpenMinutesBetween(position.EntryTime, now)

	var reason entity.ExitReason
	switch {
	case unrealized.GreaterThanOrEqual(position.TargetProfit):
		reason = entity.ExitReasonProfitTarget
	case heldMinutes >= float64(position.MaxHoldMinutes):
		reason = entity.ExitReasonMaxHoldTime
	default:
		return nil
	}

	trade, err := e.ledger.Close(ctx, position.Symbol, quote.Price, reason, heldMinutes, limits, now)
	if err != nil {
		if errors.Is(err, ledger.ErrPositionNotFound) {
			// Already closed by a concurrent pass; nothing to do.
			e.logger.Warn("Position vanished before close",
				logger.StringField("symbol", position.Symbol))
			return nil
		}
		return err
	}

	e.logger.Info("Position closed",
		logger.StringField("symbol", trade.Symbol),
		logger.StringField("reason", string(trade.ExitReason)),
		logger.StringField("profit", trade.Profit.StringFixed(2)),
		logger.Field("hold_minutes", trade.HoldMinutes))

	return e.recorder.RecordTrade(ctx, trade)
}
