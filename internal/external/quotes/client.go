package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fincept/analytics/internal/contracts"
	"github.com/fincept/analytics/pkg/config"
	"github.com/fincept/analytics/pkg/httputil"
	"github.com/fincept/analytics/pkg/logger"
)

var (
	// ErrNotConfigured is returned when QUOTES_BASE_URL is empty.
	ErrNotConfigured = errors.New("quotes api not configured")
	// ErrUnknownSymbol is returned when the provider has no series for the symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Client fetches daily closes from the quote REST API
// ⭐ SSOT: 외부 시세 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a quote client. The API key, timeout and request rate
// come from cfg.
func NewClient(cfg config.QuotesConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	httpClient := httputil.New(cfg.Timeout, log).WithRateLimit(cfg.RatePerSec)
	if cfg.APIKey != "" {
		httpClient.WithHeader("X-API-Key", cfg.APIKey)
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("quotes"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// dailyResponse is the provider payload. Closes may be JSON numbers or strings.
type dailyResponse struct {
	Symbol string `json:"symbol"`
	Closes []struct {
		Date  string          `json:"date"`
		Close decimal.Decimal `json:"close"`
	} `json:"closes"`
}

// Configured reports whether a base URL is set
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// FetchDailyCloses returns the closes of symbol between from and to,
// ordered by date.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PricePoint, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("from", from.Format("2006-01-02"))
	params.Set("to", to.Format("2006-01-02"))
	fullURL := fmt.Sprintf("%s/v1/daily/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var body dailyResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &body); err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
		}
		return nil, fmt.Errorf("fetch daily closes for %s: %w", symbol, err)
	}

	prices := make([]contracts.PricePoint, 0, len(body.Closes))
	for _, row := range body.Closes {
		if _, err := contracts.TimestampDate(row.Date); err != nil {
			c.logger.WithField("symbol", symbol).WithError(err).Warn("Skipping quote with bad date")
			continue
		}
		prices = append(prices, contracts.PricePoint{Timestamp: row.Date, Price: row.Close})
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(prices),
	}).Debug("Fetched daily closes")

	return contracts.SortPrices(prices), nil
}
