package priceservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"exchanged/internal/domain"
	"exchanged/internal/money"
)

// ExternalProvider fetches a quote per symbol from a pluggable HTTP quote
// source, built on resty with retry/backoff — the same client shape the
// teacher repo uses for its Polymarket CLOB REST calls, repurposed here for
// an external price feed.
type ExternalProvider struct {
	http     *resty.Client
	endpoint string // e.g. "https://quotes.example.com/v1/price/{ticker}"
}

// quoteResponse is the expected JSON shape of the external quote endpoint.
type quoteResponse struct {
	Price string `json:"price"`
}

// NewExternalProvider builds a provider that issues GET requests against
// baseURL + "/price/{ticker}" with retry on 5xx.
func NewExternalProvider(baseURL string, timeout time.Duration) *ExternalProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		})

	return &ExternalProvider{http: client}
}

// Quote implements Provider by fetching the latest price for ticker. prev is
// ignored: the external source is authoritative for the absolute price.
func (p *ExternalProvider) Quote(ctx context.Context, ticker domain.Ticker, _ decimal.Decimal) (decimal.Decimal, error) {
	var result quoteResponse
	resp, err := p.http.R().
		SetContext(ctx).
		SetPathParam("ticker", string(ticker)).
		SetResult(&result).
		Get("/price/{ticker}")
	if err != nil {
		return decimal.Zero, fmt.Errorf("priceservice: external quote %s: %w", ticker, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return decimal.Zero, fmt.Errorf("priceservice: external quote %s: status %d", ticker, resp.StatusCode())
	}

	price, err := decimal.NewFromString(result.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("priceservice: external quote %s: parse price: %w", ticker, err)
	}
	return money.RoundPrice(price), nil
}
