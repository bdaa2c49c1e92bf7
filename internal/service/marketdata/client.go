package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	"FlowICT/internal/service/ratelimit"
	applogger "FlowICT/pkg/logger"
)

const (
	// Provider hard limit is 5000 rows per call; keep a buffer.
	maxCandlesPerRequest = 4000
	quotaKey             = "marketdata"
)

// Client fetches OHLCV windows from a provider-style candle REST API:
// symbol/resolution/from/to query parameters, column-array JSON response.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	limiter *ratelimit.Limiter
	burst   float64
	perSec  float64
	l       *applogger.Logger
}

var _ domrepo.MarketDataProvider = (*Client)(nil)

func New(baseURL, apiKey string, timeout time.Duration, limiter *ratelimit.Limiter, burst, perSec float64) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
		limiter: limiter,
		burst:   burst,
		perSec:  perSec,
	}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

func (c *Client) FetchCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time) ([]models.Candle, error) {
	resolution, err := resolutionFor(tf)
	if err != nil {
		return nil, err
	}
	if now := time.Now().UTC(); to.After(now) {
		to = now
	}
	if !to.After(from) {
		return nil, nil
	}

	dur := tf.Duration()
	var all []models.Candle
	currentFrom := from
	for currentFrom.Before(to) {
		batchTo := currentFrom.Add(dur * maxCandlesPerRequest)
		if batchTo.After(to) {
			batchTo = to
		}
		batch, err := c.fetchWindow(ctx, symbol, resolution, currentFrom, batchTo)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			batch[i].Symbol = symbol
		}
		all = append(all, batch...)
		currentFrom = batch[len(batch)-1].Timestamp.Add(dur)
	}

	if c.l != nil {
		c.l.Info("fetched provider candles",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(all)),
		)
	}
	return all, nil
}

func (c *Client) fetchWindow(ctx context.Context, symbol, resolution string, from, to time.Time) ([]models.Candle, error) {
	if err := c.waitQuota(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("resolution", resolution)
	params.Add("from", strconv.FormatInt(from.Unix(), 10))
	params.Add("to", strconv.FormatInt(to.Unix(), 10))
	params.Add("token", c.apiKey)

	endpoint := c.baseURL + "/stock/candle?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("candle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("candle request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr candleResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}
	return cr.toCandles()
}

func (c *Client) waitQuota(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	for !c.limiter.Allow(quotaKey, c.burst, c.perSec) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return nil
}

// candleResponse is the column-array payload:
// {"s":"ok","t":[...],"o":[...],"h":[...],"l":[...],"c":[...],"v":[...]}
type candleResponse struct {
	Status string    `json:"s"`
	Times  []int64   `json:"t"`
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []float64 `json:"v"`
}

func (r *candleResponse) toCandles() ([]models.Candle, error) {
	if r.Status == "no_data" {
		return nil, nil
	}
	if r.Status != "ok" {
		return nil, fmt.Errorf("candle response status %q", r.Status)
	}
	n := len(r.Times)
	if len(r.Open) != n || len(r.High) != n || len(r.Low) != n || len(r.Close) != n {
		return nil, fmt.Errorf("candle response column length mismatch")
	}
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		c := models.Candle{
			Timestamp: time.Unix(r.Times[i], 0).UTC(),
			Open:      r.Open[i],
			High:      r.High[i],
			Low:       r.Low[i],
			Close:     r.Close[i],
		}
		if i < len(r.Volume) {
			c.Volume = r.Volume[i]
		}
		out = append(out, c)
	}
	return out, nil
}

func resolutionFor(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TF1m:
		return "1", nil
	case domrepo.TF5m:
		return "5", nil
	case domrepo.TF15m:
		return "15", nil
	case domrepo.TF1h:
		return "60", nil
	case domrepo.TF4h:
		return "240", nil
	case domrepo.TF1d:
		return "D", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}
