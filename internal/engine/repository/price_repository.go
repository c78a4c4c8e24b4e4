package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang-paper-trader/internal/engine/dto"
	"golang-paper-trader/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ErrPriceUnavailable marks a transient quote failure. Callers skip the
// symbol for the current cycle and try again on the next one.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceOracle supplies current market prices.
type PriceOracle interface {
	GetCurrentPrice(ctx context.Context, symbol string) (dto.Quote, error)
}

// YahooFinanceConfig holds the settings for the Yahoo quote adapter.
type YahooFinanceConfig struct {
	BaseURL             string        `mapstructure:"base_url"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

type yahooFinanceRepository struct {
	cfg        YahooFinanceConfig
	logger     *logger.Logger
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
}

// NewYahooFinanceRepository creates a rate-limited, caching PriceOracle over
// the Yahoo Finance chart API.
func NewYahooFinanceRepository(cfg YahooFinanceConfig, log *logger.Logger) (PriceOracle, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("yahoo finance base_url is required")
	}
	if cfg.MaxRequestPerMinute <= 0 {
		cfg.MaxRequestPerMinute = 60
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	return &yahooFinanceRepository{
		cfg:        cfg,
		logger:     log,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.MaxRequestPerMinute)/60.0), 1),
		cache:      gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}, nil
}

func (r *yahooFinanceRepository) GetCurrentPrice(ctx context.Context, symbol string) (dto.Quote, error) {
	if cached, found := r.cache.Get(symbol); found {
		return cached.(dto.Quote), nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return dto.Quote{}, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", r.cfg.BaseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dto.Quote{}, fmt.Errorf("build request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return dto.Quote{}, fmt.Errorf("fetch quote for %s: %w: %v", symbol, ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return dto.Quote{}, fmt.Errorf("fetch quote for %s: %w: status %d", symbol, ErrPriceUnavailable, resp.StatusCode)
	}

	var chartResp dto.YahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return dto.Quote{}, fmt.Errorf("decode quote for %s: %w", symbol, err)
	}

	if chartResp.Chart.Error != nil {
		return dto.Quote{}, fmt.Errorf("quote error for %s: %w: %s", symbol, ErrPriceUnavailable, chartResp.Chart.Error.Description)
	}
	if len(chartResp.Chart.Result) == 0 {
		return dto.Quote{}, fmt.Errorf("quote for %s: %w: empty result", symbol, ErrPriceUnavailable)
	}

	meta := chartResp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return dto.Quote{}, fmt.Errorf("quote for %s: %w: no market price", symbol, ErrPriceUnavailable)
	}

	staleness := 0
	if meta.RegularMarketTime > 0 {
		staleness = int(time.Since(time.Unix(meta.RegularMarketTime, 0)).Minutes())
		if staleness < 0 {
			staleness = 0
		}
	}

	quote := dto.Quote{
		Symbol:           symbol,
		Price:            decimal.NewFromFloat(meta.RegularMarketPrice),
		Source:           "yahoo_finance",
		StalenessMinutes: staleness,
	}
	r.cache.Set(symbol, quote, gocache.DefaultExpiration)

	return quote, nil
}
