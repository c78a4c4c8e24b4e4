package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang-paper-trader/internal/engine/ledger"
	"golang-paper-trader/internal/engine/risk"
	"golang-paper-trader/internal/entity"
	"golang-paper-trader/pkg/common"
	"golang-paper-trader/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pollerFixture struct {
	ledger     *ledger.Ledger
	oracle     *fakeOracle
	recorder   *fakeRecorder
	signalRepo *fakeSignalRepo
	configRepo *fakeConfigRepo
	poller     *SignalPoller
	limits     risk.Limits
	now        time.Time
}

func newPollerFixture(t *testing.T, now time.Time) *pollerFixture {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)

	cal := testCalendar(t)
	f := &pollerFixture{
		ledger:     ledger.New(newFakePositionRepo(), log, d("100000")),
		oracle:     &fakeOracle{prices: map[string]decimal.Decimal{}, errs: map[string]error{}},
		recorder:   &fakeRecorder{},
		signalRepo: &fakeSignalRepo{},
		configRepo: newFakeConfigRepo(),
		limits:     testLimits(),
		now:        now,
	}
	f.poller = NewSignalPoller(log, cal, f.signalRepo, f.configRepo, f.oracle, f.ledger, f.recorder,
		func() risk.Limits { return f.limits },
		func() time.Time { return f.now })
	return f
}

func buySignal(id int64, symbol string, createdAt time.Time) entity.TradeSignal {
	return entity.TradeSignal{
		ID:         id,
		Symbol:     symbol,
		Signal:     entity.SignalBuy,
		Confidence: 0.85,
		CreatedAt:  createdAt,
	}
}

func TestPoll_OpensFromSignals(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := tradingDay(cal, 11, 0)
	f := newPollerFixture(t, now)
	require.NoError(t, f.poller.Restore(context.Background()))

	f.signalRepo.signals = []entity.TradeSignal{
		buySignal(1, "BBCA", now.Add(time.Minute)),
		buySignal(2, "TLKM", now.Add(2*time.Minute)),
	}
	f.oracle.prices["BBCA"] = d("50")
	f.oracle.prices["TLKM"] = d("40")

	f.poller.Poll(context.Background())

	positions := f.ledger.Positions()
	assert.Len(t, positions, 2)
	assert.Len(t, f.recorder.opens, 2)
}

func TestPoll_AdvancesAndPersistsCursor(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := tradingDay(cal, 11, 0)
	f := newPollerFixture(t, now)
	require.NoError(t, f.poller.Restore(context.Background()))

	latest := now.Add(3 * time.Minute)
	f.signalRepo.signals = []entity.TradeSignal{
		buySignal(1, "BBCA", now.Add(time.Minute)),
		buySignal(2, "TLKM", latest),
	}
	f.oracle.prices["BBCA"] = d("50")
	f.oracle.prices["TLKM"] = d("40")

	f.poller.Poll(context.Background())

	stored, err := f.configRepo.Get(context.Background(), common.ConfigKeySignalCursor)
	require.NoError(t, err)
	parsed, err := time.Parse(time.RFC3339Nano, stored)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(latest), "cursor %s", stored)

	// A second poll sees nothing new.
	f.poller.Poll(context.Background())
	assert.Len(t, f.recorder.opens, 2)
}

func TestPoll_CursorAdvancesPastRejectedSignals(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := tradingDay(cal, 11, 0)
	f := newPollerFixture(t, now)
	require.NoError(t, f.poller.Restore(context.Background()))

	createdAt := now.Add(time.Minute)
	f.signalRepo.signals = []entity.TradeSignal{buySignal(1, "BRK", createdAt)}
	// Single share costs more than the whole position budget.
	f.oracle.prices["BRK"] = d("50000")

	f.poller.Poll(context.Background())

	assert.Empty(t, f.ledger.Positions())
	stored, err := f.configRepo.Get(context.Background(), common.ConfigKeySignalCursor)
	require.NoError(t, err)
	parsed, err := time.Parse(time.RFC3339Nano, stored)
	require.NoError(t, err)
	// The signal was consumed even though it did not trade.
	assert.True(t, parsed.Equal(createdAt))
}

func TestPoll_SkipsHeldSymbols(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := tradingDay(cal, 11, 0)
	f := newPollerFixture(t, now)
	require.NoError(t, f.poller.Restore(context.Background()))

	_, err := f.ledger.Open(context.Background(),
		buySignal(1, "BBCA", now.Add(-time.Hour)), d("50"), f.limits, now.Add(-time.Hour))
	require.NoError(t, err)

	f.signalRepo.signals = []entity.TradeSignal{buySignal(2, "BBCA", now.Add(time.Minute))}
	f.oracle.prices["BBCA"] = d("51")

	f.poller.Poll(context.Background())

	positions := f.ledger.Positions()
	require.Len(t, positions, 1)
	assert.True(t, d("50").Equal(positions[0].EntryPrice))
	assert.Empty(t, f.recorder.opens)
}

func TestPoll_PriceUnavailableSkipsSignal(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := tradingDay(cal, 11, 0)
	f := newPollerFixture(t, now)
	require.NoError(t, f.poller.Restore(context.Background()))

	f.signalRepo.signals = []entity.TradeSignal{
		buySignal(1, "BBCA", now.Add(time.Minute)),
		buySignal(2, "TLKM", now.Add(2*time.Minute)),
	}
	f.oracle.errs["BBCA"] = errors.New("upstream timeout")
	f.oracle.prices["TLKM"] = d("40")

	f.poller.Poll(context.Background())

	positions := f.ledger.Positions()
	require.Len(t, positions, 1)
	assert.Equal(t, "TLKM", positions[0].Symbol)
}

func TestPoll_MarketClosedDoesNothing(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	saturday := time.Date(2025, time.June, 7, 12, 0, 0, 0, cal.Location())
	f := newPollerFixture(t, saturday)
	require.NoError(t, f.poller.Restore(context.Background()))

	f.signalRepo.signals = []entity.TradeSignal{buySignal(1, "BBCA", saturday.Add(time.Minute))}
	f.oracle.prices["BBCA"] = d("50")

	f.poller.Poll(context.Background())

	assert.Empty(t, f.ledger.Positions())
	_, err := f.configRepo.Get(context.Background(), common.ConfigKeySignalCursor)
	assert.Error(t, err)
}

func TestRestore_MissingCursorStartsAtNow(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := tradingDay(cal, 11, 0)
	f := newPollerFixture(t, now)
	require.NoError(t, f.poller.Restore(context.Background()))

	// A signal from before startup must not be replayed.
	f.signalRepo.signals = []entity.TradeSignal{buySignal(1, "BBCA", now.Add(-time.Hour))}
	f.oracle.prices["BBCA"] = d("50")

	f.poller.Poll(context.Background())
	assert.Empty(t, f.ledger.Positions())
}

func TestRestore_LoadsPersistedCursor(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := tradingDay(cal, 11, 0)
	f := newPollerFixture(t, now)

	cursor := now.Add(-30 * time.Minute)
	f.configRepo.values[common.ConfigKeySignalCursor] = cursor.Format(time.RFC3339Nano)
	require.NoError(t, f.poller.Restore(context.Background()))

	// Signals after the stored cursor, even if before startup, are taken.
	f.signalRepo.signals = []entity.TradeSignal{buySignal(1, "BBCA", now.Add(-10*time.Minute))}
	f.oracle.prices["BBCA"] = d("50")

	f.poller.Poll(context.Background())
	assert.Len(t, f.ledger.Positions(), 1)
}

func TestRestore_InvalidCursorFallsBackToNow(t *testing.T) {
	t.Parallel()
	cal := testCalendar(t)
	now := tradingDay(cal, 11, 0)
	f := newPollerFixture(t, now)

	f.configRepo.values[common.ConfigKeySignalCursor] = "garbage"
	require.NoError(t, f.poller.Restore(context.Background()))

	f.signalRepo.signals = []entity.TradeSignal{buySignal(1, "BBCA", now.Add(-time.Hour))}
	f.oracle.prices["BBCA"] = d("50")

	f.poller.Poll(context.Background())
	assert.Empty(t, f.ledger.Positions())
}
