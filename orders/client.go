package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/transfer_console/models"
)

// SubmissionResult carries the backend's answer to a successful order
// creation.
type SubmissionResult struct {
	OrderId     int    `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Message     string `json:"message"`
}

// Client posts the finished transfer payload to the order-creation
// endpoint. One call creates the whole multi-destination order or none of
// it; partial commits do not exist on this boundary.
type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
}

func NewClient() (*Client, error) {
	baseURL := strings.TrimSpace(os.Getenv("ORDERS_API_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("ORDERS_API_BASE_URL is not set")
	}
	apiKey := strings.TrimSpace(os.Getenv("ORDERS_API_KEY"))
	apiKeyHeader := strings.TrimSpace(os.Getenv("ORDERS_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	timeoutSeconds := 30
	if v := strings.TrimSpace(os.Getenv("ORDERS_SUBMIT_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeoutSeconds = n
		}
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}, nil
}

// NewClientWithBaseURL is for tests and one-off tools.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateOrder posts the payload. Any non-2xx answer or transport error is
// returned as-is; the caller keeps its workspace snapshot for retry.
func (c *Client) CreateOrder(ctx context.Context, payload *models.SubmissionPayload) (*SubmissionResult, error) {
	if payload == nil {
		return nil, errors.New("nil submission payload")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/transfer-orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHdr, c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("order api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result SubmissionResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		// 2xx with an unreadable body still means the order was created.
		return &SubmissionResult{Message: "created"}, nil
	}
	return &result, nil
}
