// Package posapi implements the backend.Service interface over the sales
// backend's HTTP API: product lookup, prefix search, and checkout
// submission.
package posapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"pos-sales/internal/backend"
	"pos-sales/internal/model"
	"pos-sales/internal/transport"
)

// apiPath is the base path for the sales API endpoints.
const apiPath = "/api/sales"

// userAgent identifies this client to upstream servers.
// CDN-hosted backends rate-limit requests without a User-Agent.
const userAgent = "POS-Sales/1.0"

// Config holds sales backend client configuration.
type Config struct {
	// BaseURL is the backend root, e.g. "http://127.0.0.1:5000".
	BaseURL string

	// Timeout per call. Defaults to 30s.
	Timeout time.Duration

	// BrowserTLS switches outbound calls to a browser TLS fingerprint.
	// Needed only for CDN-fronted backends that rate-limit on JA3.
	BrowserTLS bool

	// DisableBreaker turns off the circuit breaker around transport-level
	// failures. The breaker never retries; it only fails fast while the
	// backend is unreachable.
	DisableBreaker bool
}

// Client implements backend.Service against the sales API.
//
// The error contract follows the backend's payload shape
// {"error": code, "detail": message}; the detail is surfaced to the user
// whenever present. No call is ever retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[*http.Response]
}

// New creates a sales backend client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.BrowserTLS {
		httpClient.Transport = transport.NewBrowserTransport(timeout)
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
	}

	if !cfg.DisableBreaker {
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:    "sales-backend",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}

	return c, nil
}

// GetProduct fetches one product record by id.
func (c *Client) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	body, status, err := c.do(ctx, http.MethodGet,
		apiPath+"/product/"+strconv.FormatInt(productID, 10), nil, nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return nil, model.NewProductNotFoundError(productID)
	}
	if status >= 400 {
		return nil, c.parseErrorResponse(status, body)
	}

	var p wireProduct
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parsing product response: %w", err)
	}
	product := p.toModel()
	return &product, nil
}

// SearchProducts queries products by name prefix.
// An empty query returns no matches without a network call, matching the
// backend's own behavior.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", query)

	body, status, err := c.do(ctx, http.MethodGet, apiPath+"/search", q, nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, c.parseErrorResponse(status, body)
	}

	var wire []wireProduct
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	matches := make([]model.Product, len(wire))
	for i, p := range wire {
		matches[i] = p.toModel()
	}
	return matches, nil
}

// SubmitCheckout posts the cart as a single transaction.
// Each attempt carries a fresh Idempotency-Key so a manually retried
// submission after an ambiguous failure cannot double-charge.
func (c *Client) SubmitCheckout(ctx context.Context, req *model.CheckoutRequest) (*model.Receipt, error) {
	wire := wireCheckoutRequest{
		Items:         make([]wireItemRef, len(req.Items)),
		PaymentMethod: string(req.PaymentMethod),
	}
	for i, it := range req.Items {
		wire.Items[i] = wireItemRef{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	body, status, err := c.do(ctx, http.MethodPost, apiPath+"/checkout", nil, &doBody{
		payload: wire,
		headers: headers,
	})
	if err != nil {
		return nil, model.NewCheckoutFailedError("", err)
	}

	if status == http.StatusTooManyRequests {
		return nil, model.NewRateLimitError("sales backend")
	}
	if status >= 400 {
		var wcErr wireError
		json.Unmarshal(body, &wcErr) // Best effort parse
		detail := wcErr.Detail
		if detail == "" {
			detail = wcErr.Error
		}
		return nil, model.NewCheckoutFailedError(detail,
			fmt.Errorf("status %d: %s", status, wcErr.Error))
	}

	var receipt wireReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, model.NewCheckoutFailedError("", fmt.Errorf("parsing checkout response: %w", err))
	}

	// Some backend paths fold errors into a 200 body.
	if receipt.Error != "" {
		detail := receipt.Detail
		if detail == "" {
			detail = receipt.Error
		}
		return nil, model.NewCheckoutFailedError(detail, nil)
	}

	return receipt.toModel(), nil
}

// doBody bundles a JSON payload with extra headers for a single request.
type doBody struct {
	payload any
	headers map[string]string
}

// do executes one request and returns the response body and status.
// Transport-level failures go through the circuit breaker (when enabled)
// and come back as upstream errors; HTTP error statuses are the caller's
// to interpret.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body *doBody) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body.payload)
		if err != nil {
			return nil, 0, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		for k, v := range body.headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.roundTrip(req)
	if err != nil {
		return nil, 0, model.NewUpstreamError("sales backend", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

// roundTrip sends the request, through the breaker when configured.
func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	return c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
}

// parseErrorResponse converts a backend error payload to an APIError.
func (c *Client) parseErrorResponse(statusCode int, body []byte) error {
	var wcErr wireError
	json.Unmarshal(body, &wcErr) // Best effort parse

	switch statusCode {
	case http.StatusNotFound:
		return model.NewNotFoundError("resource")
	case http.StatusTooManyRequests:
		return model.NewRateLimitError("sales backend")
	case http.StatusBadRequest:
		msg := wcErr.Detail
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewInvalidInputError("request", msg)
	default:
		return model.NewUpstreamError("sales backend",
			fmt.Errorf("status %d: %s - %s", statusCode, wcErr.Error, wcErr.Detail))
	}
}

// Verify Client implements backend.Service at compile time.
var _ backend.Service = (*Client)(nil)
