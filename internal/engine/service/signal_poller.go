package service

import (
	"context"
	"errors"
	"time"

	"golang-paper-trader/internal/engine/calendar"
	"golang-paper-trader/internal/engine/ledger"
	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/internal/engine/risk"
	"golang-paper-trader/pkg/common"
	"golang-paper-trader/pkg/logger"

	"gorm.io/gorm"
)

// SignalPoller reads new buy signals from the prediction store and proposes
// opens through the ledger. It advances a high-water-mark cursor after each
// successful poll so restarts never replay old signals.
type SignalPoller struct {
	logger     *logger.Logger
	cal        *calendar.Calendar
	signalRepo repository.SignalRepository
	configRepo repository.EngineConfigRepository
	oracle     repository.PriceOracle
	ledger     *ledger.Ledger
	recorder   Recorder
	limits     func() risk.Limits
	now        func() time.Time

	cursor time.Time // touched only by the poll goroutine
}

// NewSignalPoller creates a SignalPoller. now may be nil, in which case the
// wall clock is used.
func NewSignalPoller(
	log *logger.Logger,
	cal *calendar.Calendar,
	signalRepo repository.SignalRepository,
	configRepo repository.EngineConfigRepository,
	oracle repository.PriceOracle,
	ldg *ledger.Ledger,
	recorder Recorder,
	limits func() risk.Limits,
	now func() time.Time,
) *SignalPoller {
	if now == nil {
		now = time.Now
	}
	return &SignalPoller{
		logger:     log,
		cal:        cal,
		signalRepo: signalRepo,
		configRepo: configRepo,
		oracle:     oracle,
		ledger:     ldg,
		recorder:   recorder,
		limits:     limits,
		now:        now,
	}
}

// Restore loads the persisted signal cursor. A missing cursor starts the
// poller at the current time so historical signals are never traded.
func (p *SignalPoller) Restore(ctx context.Context) error {
	value, err := p.configRepo.Get(ctx, common.ConfigKeySignalCursor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p.cursor = p.now()
			return nil
		}
		return err
	}

	cursor, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		p.logger.Warn("Invalid signal cursor, starting from now",
			logger.StringField("value", value),
			logger.ErrorField(err))
		p.cursor = p.now()
		return nil
	}

	p.cursor = cursor
	return nil
}

// Poll runs one intake pass. Signals are only taken while the market is
// open; individual symbols that fail validation or pricing are skipped
// without blocking the rest of the batch.
func (p *SignalPoller) Poll(ctx context.Context) {
	now := p.now().In(p.cal.Location())
	if !p.cal.IsOpen(now) {
		p.logger.Debug("Market closed, skipping signal poll")
		return
	}

	signals, err := p.signalRepo.NewBuySignalsSince(ctx, p.cursor)
	if err != nil {
		p.logger.Error("Failed to poll signals", logger.ErrorField(err))
		return
	}
	if len(signals) == 0 {
		return
	}

	limits := p.limits()
	snapshot := p.ledger.Snapshot()

	for _, signal := range signals {
		if signal.CreatedAt.After(p.cursor) {
			p.cursor = signal.CreatedAt
		}

		if _, held := snapshot.OpenPositions[signal.Symbol]; held {
			p.logger.Debug("Skipping signal, position already open",
				logger.StringField("symbol", signal.Symbol))
			continue
		}

		quote, err := p.oracle.GetCurrentPrice(ctx, signal.Symbol)
		if err != nil {
			p.logger.Info("Price unavailable for signal, skipping",
				logger.StringField("symbol", signal.Symbol),
				logger.ErrorField(err))
			continue
		}

		position, err := p.ledger.Open(ctx, signal, quote.Price, limits, now)
		if err != nil {
			p.logOpenFailure(signal.Symbol, err)
			continue
		}

		p.logger.Info("Position opened",
			logger.StringField("symbol", position.Symbol),
			logger.StringField("entry_price", position.EntryPrice.StringFixed(2)),
			logger.Field("quantity", position.Quantity),
			logger.Field("signal_id", signal.ID))

		p.recorder.RecordOpen(ctx, position)
	}

	if err := p.configRepo.Set(ctx, common.ConfigKeySignalCursor, p.cursor.Format(time.RFC3339Nano)); err != nil {
		p.logger.Warn("Failed to persist signal cursor", logger.ErrorField(err))
	}
}

func (p *SignalPoller) logOpenFailure(symbol string, err error) {
	var validationErr *ledger.ValidationError
	switch {
	case errors.As(err, &validationErr):
		// Expected and non-exceptional; log every violated check.
		for _, v := range validationErr.Decision.Violations {
			p.logger.Info("Trade rejected by risk check",
				logger.StringField("symbol", symbol),
				logger.StringField("code", v.Code),
				logger.StringField("detail", v.Msg))
		}
	case errors.Is(err, ledger.ErrZeroQuantity):
		p.logger.Info("Signal skipped, price exceeds position size budget",
			logger.StringField("symbol", symbol))
	case errors.Is(err, ledger.ErrPositionExists):
		// Should have been caught by the pre-check; refusing is the fix.
		p.logger.Error("Double open refused",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err))
	default:
		p.logger.Error("Failed to open position",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err))
	}
}
