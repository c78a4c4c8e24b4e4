package config

import (
	"time"

	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/pkg/config"
)

// Market holds the exchange calendar settings.
type Market struct {
	Timezone  string `mapstructure:"timezone"`
	OpenTime  string `mapstructure:"open_time"`
	CloseTime string `mapstructure:"close_time"`
}

// Engine holds the scheduler and persistence settings of the engine loop.
type Engine struct {
	InitialCashBalance   float64       `mapstructure:"initial_cash_balance"`
	ExitCheckInterval    time.Duration `mapstructure:"exit_check_interval"`
	SignalPollInterval   time.Duration `mapstructure:"signal_poll_interval"`
	ConfigReloadInterval time.Duration `mapstructure:"config_reload_interval"`
	PersistTimeout       time.Duration `mapstructure:"persist_timeout"`
	PersistMaxRetry      int           `mapstructure:"persist_max_retry"`
	PersistRetryInterval time.Duration `mapstructure:"persist_retry_interval"`
	SnapshotCron         string        `mapstructure:"snapshot_cron"`
	DailyResetCron       string        `mapstructure:"daily_reset_cron"`
}

// Risk holds the file defaults for the hot-reloadable limits. Values from
// the engine_configs table override these on every reload tick.
type Risk struct {
	ProfitTarget                float64 `mapstructure:"profit_target"`
	MaxHoldMinutes              int     `mapstructure:"max_hold_minutes"`
	PositionSizeAmount          float64 `mapstructure:"position_size_amount"`
	CommissionRate              float64 `mapstructure:"commission_rate"`
	CommissionBaseFee           float64 `mapstructure:"commission_base_fee"`
	MinCommission               float64 `mapstructure:"min_commission"`
	MaxCommission               float64 `mapstructure:"max_commission"`
	MaxPositionConcentrationPct float64 `mapstructure:"max_position_concentration_pct"`
	MaxDailyTrades              int     `mapstructure:"max_daily_trades"`
	MaxDailyLoss                float64 `mapstructure:"max_daily_loss"`
	CooldownSecondsPerSymbol    int     `mapstructure:"cooldown_seconds_per_symbol"`
	MinTradeValue               float64 `mapstructure:"min_trade_value"`
}

// Config holds the full configuration for the engine service.
type Config struct {
	App          config.App                    `mapstructure:"app"`
	Logger       config.Logger                 `mapstructure:"logger"`
	Database     config.Database               `mapstructure:"database"`
	Redis        config.Redis                  `mapstructure:"redis"`
	API          config.API                    `mapstructure:"api"`
	Telegram     config.Telegram               `mapstructure:"telegram"`
	Market       Market                        `mapstructure:"market"`
	Engine       Engine                        `mapstructure:"engine"`
	Risk         Risk                          `mapstructure:"risk"`
	YahooFinance repository.YahooFinanceConfig `mapstructure:"yahoo_finance"`
}

// Load loads the engine configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
