package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"BarPull/internal/domain/models"
	nethttp "BarPull/pkg/http"
)

const chartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s"

// Client fetches daily bars from the Yahoo Finance public chart API. It
// implements the BarFetcher capability; auth, proxying and the fetch window
// are its own concern.
type Client struct {
	http      *nethttp.Client
	barRange  string            // chart API range token, e.g. "1mo", "3mo"
	symbolMap map[string]string // maps internal symbols to Yahoo tickers
}

// New creates a Yahoo client. barRange selects how far back each fetch
// reaches; proxyURL may be empty.
func New(barRange, proxyURL string) *Client {
	if barRange == "" {
		barRange = "1mo"
	}
	return &Client{
		http: nethttp.NewClient(
			nethttp.WithTimeout(30*time.Second),
			nethttp.WithProxy(proxyURL),
			nethttp.WithUserAgent("Mozilla/5.0"),
		),
		barRange: barRange,
		symbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (c *Client) Name() string { return "yahoo" }

func (c *Client) yahooSymbol(symbol string) string {
	if mapped, ok := c.symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// chartResponse is the response structure from the Yahoo Finance chart API.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []any `json:"open"`
					High   []any `json:"high"`
					Low    []any `json:"low"`
					Close  []any `json:"close"`
					Volume []any `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// FetchDailyBars returns one bar per trading day in the configured range,
// ascending by date.
func (c *Client) FetchDailyBars(ctx context.Context, symbol string) ([]models.DailyBar, error) {
	var chart chartResponse
	err := c.http.SendAndParse(ctx, &nethttp.RequestOptions{
		Method: nethttp.MethodGet,
		URL:    fmt.Sprintf(chartURL, url.PathEscape(c.yahooSymbol(symbol))),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"range":    {c.barRange},
		},
	}, &chart)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]models.DailyBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // market holiday / null row
		}
		bars = append(bars, models.DailyBar{
			Date:   time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:   toFloat(quote.Open[i]),
			High:   toFloat(quote.High[i]),
			Low:    toFloat(quote.Low[i]),
			Close:  toFloat(quote.Close[i]),
			Volume: int64(toFloat(quote.Volume[i])),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
