package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"MarketPulse/internal/model"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultTwelveDataURL = "https://api.twelvedata.com"

// ErrRateLimited is returned when the API still reports a rate limit after all retries.
var ErrRateLimited = errors.New("rate limit exceeded")

// TwelveDataFetcher implements PriceFetcher using the TwelveData time_series API.
type TwelveDataFetcher struct {
	APIKey   string
	Interval string
	Client   *resty.Client
	limiter  *rate.Limiter
}

// NewTwelveDataFetcher creates a fetcher that issues at most requestsPerMinute
// calls (unlimited when <= 0) and retries rate-limit and server errors with
// exponential backoff.
func NewTwelveDataFetcher(baseURL, apiKey, interval string, requestsPerMinute int, proxyURL string) *TwelveDataFetcher {
	if baseURL == "" {
		baseURL = DefaultTwelveDataURL
	}
	if interval == "" {
		interval = "1day"
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &TwelveDataFetcher{
		APIKey:   apiKey,
		Interval: interval,
		Client:   newRetryingClient(baseURL, proxyURL),
		limiter:  rate.NewLimiter(limit, 1),
	}
}

func (f *TwelveDataFetcher) Name() string { return "twelvedata" }

// tdResponse is the time_series payload. Errors come back as HTTP 200 with
// status "error" and a numeric code.
type tdResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Close    any    `json:"close"`
	} `json:"values"`
}

func (f *TwelveDataFetcher) FetchPrices(ctx context.Context, symbol string, size int) ([]model.KeyedRecord, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := f.Client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     symbol,
			"interval":   f.Interval,
			"outputsize": strconv.Itoa(size),
			"apikey":     f.APIKey,
		}).
		Get("/time_series")
	if err != nil {
		return nil, fmt.Errorf("twelvedata fetch %s: %w", symbol, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("twelvedata fetch %s: %w", symbol, ErrRateLimited)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("twelvedata fetch %s: status %d, body: %s", symbol, resp.StatusCode(), resp.String())
	}

	var series tdResponse
	if err := json.Unmarshal(resp.Body(), &series); err != nil {
		return nil, fmt.Errorf("twelvedata decode: %w", err)
	}
	if series.Status == "error" {
		if series.Code == http.StatusTooManyRequests {
			return nil, fmt.Errorf("twelvedata fetch %s: %w: %s", symbol, ErrRateLimited, series.Message)
		}
		return nil, fmt.Errorf("twelvedata api error %d: %s", series.Code, series.Message)
	}

	recs := make([]model.KeyedRecord, 0, len(series.Values))
	for _, v := range series.Values {
		if v.Datetime == "" {
			continue
		}
		recs = append(recs, model.KeyedRecord{
			Key:    v.Datetime,
			Record: model.Record{"datetime": v.Datetime, "close": v.Close},
		})
	}
	// The API returns newest first; store chronologically.
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Key < recs[j].Key })
	return recs, nil
}

// newRetryingClient mirrors the retry policy used for every upstream API:
// 5 attempts, exponential wait between 2s and 10s, on transport errors,
// HTTP 429, 5xx and TwelveData-style in-body 429s.
func newRetryingClient(baseURL, proxyURL string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetRetryCount(4).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			if r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500 {
				return true
			}
			var body struct {
				Status string `json:"status"`
				Code   int    `json:"code"`
			}
			if json.Unmarshal(r.Body(), &body) == nil && body.Status == "error" && body.Code == http.StatusTooManyRequests {
				return true
			}
			return false
		})
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return client
}
