package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-paper-trader/internal/engine/config"
	"golang-paper-trader/internal/engine/ledger"
	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/internal/entity"
	"golang-paper-trader/pkg/common"
	"golang-paper-trader/pkg/logger"
	"golang-paper-trader/pkg/telegram"

	goRedis "github.com/redis/go-redis/v9"
)

// ErrFatalStorage means the trade log could not be written after all
// retries. A trade must never be reported as executed without a durable
// record, so this error stops the engine loop.
var ErrFatalStorage = errors.New("fatal storage failure")

// TradeRecorder durably appends completed trades, publishes trade lifecycle
// events and writes periodic portfolio snapshots.
type TradeRecorder struct {
	cfg          config.Engine
	logger       *logger.Logger
	tradeRepo    repository.TradeRepository
	snapshotRepo repository.SnapshotRepository
	ledger       *ledger.Ledger
	redisClient  *goRedis.Client
	streamMaxLen int64
	notifier     telegram.Notifier
}

// NewTradeRecorder creates a TradeRecorder. redisClient and notifier may be
// nil; event publishing and alerts are then skipped.
func NewTradeRecorder(
	cfg config.Engine,
	log *logger.Logger,
	tradeRepo repository.TradeRepository,
	snapshotRepo repository.SnapshotRepository,
	ldg *ledger.Ledger,
	redisClient *goRedis.Client,
	streamMaxLen int64,
	notifier telegram.Notifier,
) *TradeRecorder {
	return &TradeRecorder{
		cfg:          cfg,
		logger:       log,
		tradeRepo:    tradeRepo,
		snapshotRepo: snapshotRepo,
		ledger:       ldg,
		redisClient:  redisClient,
		streamMaxLen: streamMaxLen,
		notifier:     notifier,
	}
}

// RecordTrade persists the trade, retrying transient storage errors with a
// doubling backoff. Exhausting the retries escalates to ErrFatalStorage.
func (r *TradeRecorder) RecordTrade(ctx context.Context, trade *entity.Trade) error {
	attempts := r.cfg.PersistMaxRetry
	if attempts < 1 {
		attempts = 1
	}
	backoff := r.cfg.PersistRetryInterval

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		persistCtx, cancel := context.WithTimeout(ctx, r.cfg.PersistTimeout)
		lastErr = r.tradeRepo.Create(persistCtx, trade)
		cancel()

		if lastErr == nil {
			r.publishTradeEvent(ctx, common.TradeEventClosed, trade)
			r.notify(telegram.FormatTradeClosed(trade))
			return nil
		}

		r.logger.Warn("Failed to persist trade, will retry",
			logger.StringField("symbol", trade.Symbol),
			logger.Field("attempt", attempt),
			logger.ErrorField(lastErr))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("persist trade %s: %w: %v", trade.Symbol, ErrFatalStorage, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("persist trade %s after %d attempts: %w: %v", trade.Symbol, attempts, ErrFatalStorage, lastErr)
}

// RecordOpen announces a newly opened position. The position row itself was
// already persisted by the ledger; everything here is best-effort.
func (r *TradeRecorder) RecordOpen(ctx context.Context, position *entity.Position) {
	r.publishPositionEvent(ctx, common.TradeEventOpened, position)
	r.notify(telegram.FormatPositionOpened(position))
}

// SnapshotPortfolio writes a point-in-time portfolio record.
func (r *TradeRecorder) SnapshotPortfolio(ctx context.Context, now time.Time) error {
	snapshot := r.ledger.Stats(now)
	if err := r.snapshotRepo.Create(ctx, &snapshot); err != nil {
		return fmt.Errorf("persist portfolio snapshot: %w", err)
	}
	return nil
}

func (r *TradeRecorder) publishTradeEvent(ctx context.Context, event string, trade *entity.Trade) {
	if r.redisClient == nil {
		return
	}
	payload, err := json.Marshal(trade)
	if err != nil {
		r.logger.Error("Failed to marshal trade event", logger.ErrorField(err))
		return
	}
	r.publish(ctx, event, payload)
}

func (r *TradeRecorder) publishPositionEvent(ctx context.Context, event string, position *entity.Position) {
	if r.redisClient == nil {
		return
	}
	payload, err := json.Marshal(position)
	if err != nil {
		r.logger.Error("Failed to marshal position event", logger.ErrorField(err))
		return
	}
	r.publish(ctx, event, payload)
}

func (r *TradeRecorder) publish(ctx context.Context, event string, payload []byte) {
	err := r.redisClient.XAdd(ctx, &goRedis.XAddArgs{
		Stream: common.RedisStreamTradeEvents,
		MaxLen: r.streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event":   event,
			"payload": payload,
		},
	}).Err()
	if err != nil {
		r.logger.Error("Failed to publish trade event",
			logger.StringField("event", event),
			logger.ErrorField(err))
	}
}

func (r *TradeRecorder) notify(text string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendMessage(text); err != nil {
		r.logger.Error("Failed to send telegram alert", logger.ErrorField(err))
	}
}
