package common

const (
	// RedisStreamTradeEvents carries trade lifecycle events for dashboard consumers.
	RedisStreamTradeEvents = "paper.trade.events"

	TradeEventOpened = "trade.opened"
	TradeEventClosed = "trade.closed"

	// ConfigKeySignalCursor stores the high-water mark of the signal poll.
	ConfigKeySignalCursor = "engine.signal_cursor"

	// Config keys for hot-reloadable risk limits.
	ConfigKeyProfitTarget        = "risk.profit_target"
	ConfigKeyMaxHoldMinutes      = "risk.max_hold_minutes"
	ConfigKeyPositionSizeAmount  = "risk.position_size_amount"
	ConfigKeyCommissionRate      = "risk.commission_rate"
	ConfigKeyCommissionBaseFee   = "risk.commission_base_fee"
	ConfigKeyMinCommission       = "risk.min_commission"
	ConfigKeyMaxCommission       = "risk.max_commission"
	ConfigKeyMaxConcentrationPct = "risk.max_position_concentration_pct"
	ConfigKeyMaxDailyTrades      = "risk.max_daily_trades"
	ConfigKeyMaxDailyLoss        = "risk.max_daily_loss"
	ConfigKeyCooldownSeconds     = "risk.cooldown_seconds_per_symbol"
	ConfigKeyMinTradeValue       = "risk.min_trade_value"
)
