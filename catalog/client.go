package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CatalogProduct is one candidate returned by the backend product search.
type CatalogProduct struct {
	ID        int             `json:"id"`
	Sku       string          `json:"sku"`
	Name      string          `json:"name"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

// Client is the outbound search client for the backend product catalog.
// Search failures are recoverable: the caller's workspace is never touched
// by a failed call.
type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

func NewClient() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("CATALOG_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("CATALOG_API_BASE_URL is not set")
	}
	apiKey := strings.TrimSpace(os.Getenv("CATALOG_API_KEY"))
	apiKeyHeader := strings.TrimSpace(os.Getenv("CATALOG_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("CATALOG_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 15 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

// NewClientWithBaseURL is for tests and one-off tools; it skips env wiring
// and rate limiting.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResponse struct {
	Data []CatalogProduct `json:"data"`
}

// Search returns the catalog candidates for a keyword. An empty keyword or
// no match yields an empty list, not an error.
func (c *Client) Search(ctx context.Context, keyword string) ([]CatalogProduct, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	if c.limiter != nil {
		<-c.limiter
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	endpoint := c.baseURL + "/products/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHdr, c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed.Data, nil
}
