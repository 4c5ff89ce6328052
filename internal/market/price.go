package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable means the quote source kept failing until the retry
// budget ran out.
var ErrPriceUnavailable = errors.New("price unavailable")

// maxFetchAttempts bounds how often a single quote is retried before the run fails.
const maxFetchAttempts = 5

// Client fetches USD spot quotes from an exchange-rates endpoint that returns
// {"data": {"rates": {"USD": "<decimal string>"}}}.
type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "bountyrank/1.0")

	return &Client{
		http:    client,
		baseURL: baseURL,
	}
}

// FetchUSD returns the current USD price for symbol as a positive decimal.
// Network errors, non-2xx responses, and malformed payloads are retried up to
// the attempt budget; exhaustion yields ErrPriceUnavailable.
func (c *Client) FetchUSD(ctx context.Context, symbol string) (decimal.Decimal, error) {
	price, err := WithRetries(ctx, maxFetchAttempts, "quote "+symbol, func(ctx context.Context) (decimal.Decimal, error) {
		return c.fetchOnce(ctx, symbol)
	})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	return price, nil
}

func (c *Client) fetchOnce(ctx context.Context, symbol string) (decimal.Decimal, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("currency", symbol).
		Get(c.baseURL)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return decimal.Decimal{}, fmt.Errorf("quote endpoint status: %s", resp.Status())
	}

	var payload struct {
		Data struct {
			Rates map[string]string `json:"rates"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode quote payload: %w", err)
	}

	usd, ok := payload.Data.Rates["USD"]
	if !ok || usd == "" {
		return decimal.Decimal{}, fmt.Errorf("quote payload missing USD rate for %s", symbol)
	}
	price, err := decimal.NewFromString(usd)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse USD rate %q: %w", usd, err)
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("non-positive USD rate %s for %s", price, symbol)
	}
	return price, nil
}
