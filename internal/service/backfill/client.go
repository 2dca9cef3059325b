package backfill

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"TradeGuard/internal/domain/models"
	drepo "TradeGuard/internal/domain/repository"
	xhttp "TradeGuard/pkg/http"
)

// Client fetches recent OHLCV candles over REST for guard warm-up.
type Client struct {
	baseURL string
	client  *xhttp.Client
}

// New creates a candle source against the given history endpoint.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type candleResponse struct {
	Candles []struct {
		T int64   `json:"t"` // unix seconds, bucket start
		O float64 `json:"o"`
		H float64 `json:"h"`
		L float64 `json:"l"`
		C float64 `json:"c"`
		V float64 `json:"v"`
	} `json:"candles"`
}

// RecentCandles returns up to n most recent 1m candles, oldest first.
func (c *Client) RecentCandles(ctx context.Context, symbol string, n int) ([]models.Candle, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("backfill base url not configured")
	}
	var cr candleResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/candles",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"tf":     {"1m"},
			"n":      {strconv.Itoa(n)},
		},
	}, &cr)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}

	out := make([]models.Candle, 0, len(cr.Candles))
	for _, k := range cr.Candles {
		out = append(out, models.Candle{
			Bucket: time.Unix(k.T, 0),
			Symbol: symbol,
			Open:   k.O,
			High:   k.H,
			Low:    k.L,
			Close:  k.C,
			Volume: k.V,
		})
	}
	return out, nil
}

var _ drepo.CandleSource = (*Client)(nil)
