package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"golang-paper-trader/internal/engine/config"
	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/internal/engine/risk"
	"golang-paper-trader/pkg/common"
	"golang-paper-trader/pkg/logger"

	"github.com/shopspring/decimal"
)

// LimitsReloader owns the current risk.Limits snapshot. Reload folds the
// engine_configs overrides over the file defaults and swaps the whole
// snapshot atomically, so in-flight validations always read a consistent set.
type LimitsReloader struct {
	logger     *logger.Logger
	configRepo repository.EngineConfigRepository
	defaults   risk.Limits
	current    atomic.Pointer[risk.Limits]
}

// NewLimitsReloader creates a reloader seeded with the file defaults.
func NewLimitsReloader(cfg config.Risk, configRepo repository.EngineConfigRepository, log *logger.Logger) *LimitsReloader {
	defaults := limitsFromConfig(cfg)
	r := &LimitsReloader{
		logger:     log,
		configRepo: configRepo,
		defaults:   defaults,
	}
	r.current.Store(&defaults)
	return r
}

func limitsFromConfig(cfg config.Risk) risk.Limits {
	return risk.Limits{
		ProfitTarget:                decimal.NewFromFloat(cfg.ProfitTarget),
		MaxHoldMinutes:              cfg.MaxHoldMinutes,
		PositionSizeAmount:          decimal.NewFromFloat(cfg.PositionSizeAmount),
		CommissionRate:              decimal.NewFromFloat(cfg.CommissionRate),
		CommissionBaseFee:           decimal.NewFromFloat(cfg.CommissionBaseFee),
		MinCommission:               decimal.NewFromFloat(cfg.MinCommission),
		MaxCommission:               decimal.NewFromFloat(cfg.MaxCommission),
		MaxPositionConcentrationPct: decimal.NewFromFloat(cfg.MaxPositionConcentrationPct),
		MaxDailyTrades:              cfg.MaxDailyTrades,
		MaxDailyLoss:                decimal.NewFromFloat(cfg.MaxDailyLoss),
		CooldownSeconds:             cfg.CooldownSecondsPerSymbol,
		MinTradeValue:               decimal.NewFromFloat(cfg.MinTradeValue),
	}
}

// Current returns the latest limits snapshot.
func (r *LimitsReloader) Current() risk.Limits {
	return *r.current.Load()
}

// Reload rebuilds the limits from defaults plus stored overrides.
func (r *LimitsReloader) Reload(ctx context.Context) error {
	overrides, err := r.configRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load config overrides: %w", err)
	}

	limits := r.defaults
	for key, value := range overrides {
		if err := r.apply(&limits, key, value); err != nil {
			r.logger.Warn("Ignoring invalid config override",
				logger.StringField("key", key),
				logger.StringField("value", value),
				logger.ErrorField(err))
		}
	}

	r.current.Store(&limits)
	return nil
}

func (r *LimitsReloader) apply(limits *risk.Limits, key, value string) error {
	switch key {
	case common.ConfigKeyProfitTarget:
		return setDecimal(&limits.ProfitTarget, value)
	case common.ConfigKeyMaxHoldMinutes:
		return setInt(&limits.MaxHoldMinutes, value)
	case common.ConfigKeyPositionSizeAmount:
		return setDecimal(&limits.PositionSizeAmount, value)
	case common.ConfigKeyCommissionRate:
		return setDecimal(&limits.CommissionRate, value)
	case common.ConfigKeyCommissionBaseFee:
		return setDecimal(&limits.CommissionBaseFee, value)
	case common.ConfigKeyMinCommission:
		return setDecimal(&limits.MinCommission, value)
	case common.ConfigKeyMaxCommission:
		return setDecimal(&limits.MaxCommission, value)
	case common.ConfigKeyMaxConcentrationPct:
		return setDecimal(&limits.MaxPositionConcentrationPct, value)
	case common.ConfigKeyMaxDailyTrades:
		return setInt(&limits.MaxDailyTrades, value)
	case common.ConfigKeyMaxDailyLoss:
		return setDecimal(&limits.MaxDailyLoss, value)
	case common.ConfigKeyCooldownSeconds:
		return setInt(&limits.CooldownSeconds, value)
	case common.ConfigKeyMinTradeValue:
		return setDecimal(&limits.MinTradeValue, value)
	default:
		// Unknown keys (e.g. the signal cursor) are not limit overrides.
		return nil
	}
}

func setDecimal(dst *decimal.Decimal, value string) error {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}
