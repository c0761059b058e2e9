package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"MarketPulse/internal/model"

	"github.com/go-resty/resty/v2"
)

const DefaultApeWisdomURL = "https://apewisdom.io/api/v1.0"

// apeFields are the entry fields kept in a mention record.
var apeFields = []string{"rank", "ticker", "mentions", "upvotes", "rank_24h_ago", "mentions_24h_ago"}

// ApeWisdomFetcher implements MentionFetcher over the ApeWisdom filter API.
type ApeWisdomFetcher struct {
	Filter   string
	MaxPages int
	Client   *resty.Client
}

// NewApeWisdomFetcher creates a fetcher scanning up to maxPages pages of filter.
func NewApeWisdomFetcher(baseURL, filter string, maxPages int, proxyURL string) *ApeWisdomFetcher {
	if baseURL == "" {
		baseURL = DefaultApeWisdomURL
	}
	if filter == "" {
		filter = "all-stocks"
	}
	if maxPages <= 0 {
		maxPages = 5
	}
	return &ApeWisdomFetcher{
		Filter:   filter,
		MaxPages: maxPages,
		Client:   newRetryingClient(baseURL, proxyURL),
	}
}

func (f *ApeWisdomFetcher) Name() string { return "apewisdom" }

type apePage struct {
	Count       int              `json:"count"`
	Pages       int              `json:"pages"`
	CurrentPage int              `json:"currentPage"`
	Results     []map[string]any `json:"results"`
}

// FetchMentions scans result pages until every symbol is found, the reported
// page count is reached, or MaxPages pages have been read.
func (f *ApeWisdomFetcher) FetchMentions(ctx context.Context, symbols []string) (map[string]model.Record, error) {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[strings.ToUpper(s)] = true
	}
	found := make(map[string]model.Record, len(symbols))

	for page := 1; page <= f.MaxPages && len(found) < len(wanted); page++ {
		p, err := f.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, entry := range p.Results {
			ticker, _ := entry["ticker"].(string)
			ticker = strings.ToUpper(ticker)
			if !wanted[ticker] {
				continue
			}
			if _, dup := found[ticker]; dup {
				continue
			}
			rec := make(model.Record, len(apeFields))
			for _, k := range apeFields {
				if v, ok := entry[k]; ok {
					rec[k] = v
				}
			}
			found[ticker] = rec
		}
		if p.Pages > 0 && page >= p.Pages {
			break
		}
	}
	return found, nil
}

func (f *ApeWisdomFetcher) fetchPage(ctx context.Context, page int) (*apePage, error) {
	resp, err := f.Client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"filter": f.Filter,
			"page":   fmt.Sprintf("%d", page),
		}).
		Get("/filter/{filter}/page/{page}")
	if err != nil {
		return nil, fmt.Errorf("apewisdom fetch page %d: %w", page, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("apewisdom fetch page %d: %w", page, ErrRateLimited)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("apewisdom fetch page %d: status %d", page, resp.StatusCode())
	}

	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	var p apePage
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("apewisdom decode page %d: %w", page, err)
	}
	return &p, nil
}
