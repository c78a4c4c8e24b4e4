package http

import (
	"net/http"
	"strconv"
	"time"

	"golang-paper-trader/internal/engine/calendar"
	"golang-paper-trader/internal/engine/ledger"
	"golang-paper-trader/internal/engine/repository"
	"golang-paper-trader/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultTradesLimit = 50

// PortfolioHandler serves the read-only operator API over the engine state.
type PortfolioHandler struct {
	ledger    *ledger.Ledger
	tradeRepo repository.TradeRepository
	cal       *calendar.Calendar
	logger    *logger.Logger
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(ldg *ledger.Ledger, tradeRepo repository.TradeRepository, cal *calendar.Calendar, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{ledger: ldg, tradeRepo: tradeRepo, cal: cal, logger: log}
}

// RegisterRoutes registers the portfolio routes to the Echo group.
func (h *PortfolioHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/portfolio", h.GetPortfolio)
	g.GET("/positions", h.GetPositions)
	g.GET("/trades", h.GetTrades)
}

// GetPortfolio returns the current portfolio aggregate.
func (h *PortfolioHandler) GetPortfolio(c echo.Context) error {
	now := time.Now().In(h.cal.Location())
	stats := h.ledger.Stats(now)
	return c.JSON(http.StatusOK, echo.Map{
		"taken_at":           stats.TakenAt,
		"cash_balance":       stats.CashBalance,
		"open_positions":     stats.OpenPositions,
		"total_value":        stats.TotalValue,
		"realized_profit":    stats.RealizedProfit,
		"daily_trade_count":  stats.DailyTradeCount,
		"daily_realized_pnl": stats.DailyRealizedPnL,
		"market_open":        h.cal.IsOpen(now),
	})
}

// GetPositions returns all open positions with their latest marks.
func (h *PortfolioHandler) GetPositions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.ledger.Positions())
}

// GetTrades returns the most recent completed trades.
func (h *PortfolioHandler) GetTrades(c echo.Context) error {
	limit := defaultTradesLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	trades, err := h.tradeRepo.GetRecent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load trades", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, trades)
}
