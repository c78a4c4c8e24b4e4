package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-paper-trader/internal/engine/dto"
	"golang-paper-trader/internal/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeOracle struct {
	prices map[string]decimal.Decimal
	errs   map[string]error
}

func (f *fakeOracle) GetCurrentPrice(_ context.Context, symbol string) (dto.Quote, error) {
	if err, ok := f.errs[symbol]; ok {
		return dto.Quote{}, err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return dto.Quote{}, fmt.Errorf("no price for %s", symbol)
	}
	return dto.Quote{Symbol: symbol, Price: price, Source: "fake"}, nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	trades []entity.Trade
	opens  []entity.Position
	err    error
}

func (f *fakeRecorder) RecordTrade(_ context.Context, trade *entity.Trade) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trades = append(f.trades, *trade)
	return nil
}

func (f *fakeRecorder) RecordOpen(_ context.Context, position *entity.Position) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens = append(f.opens, *position)
}

type fakePositionRepo struct {
	rows map[string]entity.Position
}

func newFakePositionRepo() *fakePositionRepo {
	return &fakePositionRepo{rows: make(map[string]entity.Position)}
}

func (f *fakePositionRepo) Create(_ context.Context, p *entity.Position) error {
	f.rows[p.Symbol] = *p
	return nil
}

func (f *fakePositionRepo) Delete(_ context.Context, symbol string) error {
	delete(f.rows, symbol)
	return nil
}

func (f *fakePositionRepo) GetOpen(_ context.Context) ([]entity.Position, error) {
	var out []entity.Position
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, nil
}

type fakeTradeRepo struct {
	trades   []entity.Trade
	failures int // Create fails this many times before succeeding
	attempts int
}

func (f *fakeTradeRepo) Create(_ context.Context, trade *entity.Trade) error {
	f.attempts++
	if f.attempts <= f.failures {
		return fmt.Errorf("connection refused")
	}
	f.trades = append(f.trades, *trade)
	return nil
}

func (f *fakeTradeRepo) GetRecent(_ context.Context, limit int) ([]entity.Trade, error) {
	if limit > len(f.trades) {
		limit = len(f.trades)
	}
	return f.trades[:limit], nil
}

func (f *fakeTradeRepo) GetClosedSince(_ context.Context, since time.Time) ([]entity.Trade, error) {
	var out []entity.Trade
	for _, t := range f.trades {
		if !t.ExitTime.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTradeRepo) TotalProfit(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range f.trades {
		total = total.Add(t.Profit)
	}
	return total, nil
}

type fakeSnapshotRepo struct {
	snapshots []entity.PortfolioSnapshot
}

func (f *fakeSnapshotRepo) Create(_ context.Context, s *entity.PortfolioSnapshot) error {
	f.snapshots = append(f.snapshots, *s)
	return nil
}

type fakeConfigRepo struct {
	values map[string]string
	getAll error
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{values: make(map[string]string)}
}

func (f *fakeConfigRepo) GetAll(_ context.Context) (map[string]string, error) {
	if f.getAll != nil {
		return nil, f.getAll
	}
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out, nil
}

func (f *fakeConfigRepo) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return v, nil
}

func (f *fakeConfigRepo) Set(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

type fakeSignalRepo struct {
	signals []entity.TradeSignal
}

func (f *fakeSignalRepo) NewBuySignalsSince(_ context.Context, since time.Time) ([]entity.TradeSignal, error) {
	var out []entity.TradeSignal
	for _, s := range f.signals {
		if s.Signal == entity.SignalBuy && s.CreatedAt.After(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.messages = append(f.messages, text)
	return nil
}
