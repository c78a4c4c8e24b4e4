package dto

import "github.com/shopspring/decimal"

// Quote is the engine-side view of a current market price.
type Quote struct {
	Symbol           string          `json:"symbol"`
	Price            decimal.Decimal `json:"price"`
	Source           string          `json:"source"`
	StalenessMinutes int             `json:"staleness_minutes"`
}

// YahooChartResponse mirrors the subset of the Yahoo Finance chart API the
// engine needs. Prices arrive as floats and are converted to decimals at
// this boundary.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}
