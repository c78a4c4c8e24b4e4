package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang-paper-trader/internal/engine/calendar"
	"golang-paper-trader/internal/engine/config"
	"golang-paper-trader/internal/engine/ledger"
	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/pkg/logger"
	"golang-paper-trader/pkg/utils"

	"github.com/robfig/cron/v3"
)

// EngineService ties the evaluator, poller and reloader together on
// independent periodic timers. Correctness relies on the ledger serializing
// all state mutations; the timers themselves never share state.
type EngineService struct {
	cfg       *config.Config
	logger    *logger.Logger
	cal       *calendar.Calendar
	ledger    *ledger.Ledger
	tradeRepo repository.TradeRepository
	evaluator *ExitEvaluator
	poller    *SignalPoller
	reloader  *LimitsReloader
	recorder  *TradeRecorder

	cron     *cron.Cron
	fatal    context.CancelFunc
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEngineService creates the engine loop. fatal is invoked when a fatal
// storage error is detected, to trigger process shutdown.
func NewEngineService(
	cfg *config.Config,
	log *logger.Logger,
	cal *calendar.Calendar,
	ldg *ledger.Ledger,
	tradeRepo repository.TradeRepository,
	evaluator *ExitEvaluator,
	poller *SignalPoller,
	reloader *LimitsReloader,
	recorder *TradeRecorder,
	fatal context.CancelFunc,
) *EngineService {
	return &EngineService{
		cfg:       cfg,
		logger:    log,
		cal:       cal,
		ledger:    ldg,
		tradeRepo: tradeRepo,
		evaluator: evaluator,
		poller:    poller,
		reloader:  reloader,
		recorder:  recorder,
		cron:      cron.New(cron.WithLocation(cal.Location())),
		fatal:     fatal,
		stopChan:  make(chan struct{}),
	}
}

// Restore rebuilds in-memory state from durable storage. Must complete
// before Start.
func (e *EngineService) Restore(ctx context.Context) error {
	totalProfit, err := e.tradeRepo.TotalProfit(ctx)
	if err != nil {
		return fmt.Errorf("load total profit: %w", err)
	}

	now := time.Now().In(e.cal.Location())
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.cal.Location())

	closedToday, err := e.tradeRepo.GetClosedSince(ctx, dayStart)
	if err != nil {
		return fmt.Errorf("load trades closed today: %w", err)
	}

	if err := e.ledger.Restore(ctx, totalProfit, closedToday, dayStart); err != nil {
		return err
	}

	if err := e.poller.Restore(ctx); err != nil {
		return fmt.Errorf("restore signal cursor: %w", err)
	}

	if err := e.reloader.Reload(ctx); err != nil {
		// File defaults keep the engine tradable until the next reload tick.
		e.logger.Warn("Initial limits reload failed, using file defaults", logger.ErrorField(err))
	}

	return nil
}

// Start launches the periodic timers and cron jobs.
func (e *EngineService) Start(ctx context.Context) {
	e.registerTicker(ctx, "exit-check", e.cfg.Engine.ExitCheckInterval, func(ctx context.Context) {
		if err := e.evaluator.EvaluateAll(ctx); err != nil {
			if errors.Is(err, ErrFatalStorage) {
				e.logger.Error("Fatal storage error, stopping engine", logger.ErrorField(err))
				e.fatal()
				return
			}
			e.logger.Error("Exit check pass failed", logger.ErrorField(err))
		}
	})

	e.registerTicker(ctx, "signal-poll", e.cfg.Engine.SignalPollInterval, e.poller.Poll)

	e.registerTicker(ctx, "config-reload", e.cfg.Engine.ConfigReloadInterval, func(ctx context.Context) {
		if err := e.reloader.Reload(ctx); err != nil {
			e.logger.Warn("Limits reload failed, keeping previous snapshot", logger.ErrorField(err))
		}
	})

	if _, err := e.cron.AddFunc(e.cfg.Engine.SnapshotCron, func() {
		snapCtx, cancel := context.WithTimeout(context.Background(), e.cfg.Engine.PersistTimeout)
		defer cancel()
		if err := e.recorder.SnapshotPortfolio(snapCtx, time.Now().In(e.cal.Location())); err != nil {
			e.logger.Error("Portfolio snapshot failed", logger.ErrorField(err))
		}
	}); err != nil {
		e.logger.Error("Invalid snapshot cron expression", logger.ErrorField(err))
	}

	if _, err := e.cron.AddFunc(e.cfg.Engine.DailyResetCron, e.ledger.DailyReset); err != nil {
		e.logger.Error("Invalid daily reset cron expression", logger.ErrorField(err))
	}

	e.cron.Start()
	e.logger.Info("Engine loop started",
		logger.Field("exit_check_interval", e.cfg.Engine.ExitCheckInterval),
		logger.Field("signal_poll_interval", e.cfg.Engine.SignalPollInterval),
		logger.Field("config_reload_interval", e.cfg.Engine.ConfigReloadInterval))
}

func (e *EngineService) registerTicker(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) {
	e.logger.Info("Registering ticker",
		logger.StringField("name", name),
		logger.Field("interval", interval))

	e.wg.Add(1)
	utils.GoSafe(func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				e.logger.Info("Ticker stopping", logger.StringField("name", name))
				return
			case <-e.stopChan:
				e.logger.Info("Ticker stopping", logger.StringField("name", name))
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	})
}

// Stop halts the timers and waits for any in-flight pass to complete, so no
// partial trade records are left behind.
func (e *EngineService) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
	cronCtx := e.cron.Stop()
	<-cronCtx.Done()
	e.wg.Wait()
	e.logger.Info("Engine loop stopped")
}
