// Package square implements gateway.Client against Square's List Payments
// endpoint (GET /v2/payments).
package square

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/payrecon/internal/gateway"
)

const (
	// ProductionURL is Square's production API host.
	ProductionURL = "https://connect.squareup.com"
	// SandboxURL is Square's sandbox API host.
	SandboxURL = "https://connect.squareupsandbox.com"

	// DefaultVersion is sent as the Square-Version header.
	DefaultVersion = "2025-01-23"
)

// Options configures a Client.
type Options struct {
	BaseURL     string
	AccessToken string
	Version     string
	HTTPClient  *http.Client
}

// Client calls the Square REST API. It does not retry.
type Client struct {
	baseURL string
	token   string
	version string
	http    *http.Client
}

// New creates a Client. BaseURL defaults to production.
func New(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.AccessToken,
		version: opts.Version,
		http:    opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = ProductionURL
	}
	if c.version == "" {
		c.version = DefaultVersion
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// listResponse is the body of GET /v2/payments.
type listResponse struct {
	Payments []json.RawMessage `json:"payments"`
	Cursor   string            `json:"cursor"`
	Errors   []apiError        `json:"errors"`
}

type apiError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

// APIError reports errors[] returned by Square, along with the HTTP status.
type APIError struct {
	StatusCode int
	Errors     []apiError
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("square: http %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, ae := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s/%s: %s", ae.Category, ae.Code, ae.Detail))
	}
	return fmt.Sprintf("square: http %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// ListPayments fetches one page. A payment that does not decode is
// returned with DecodeErr set rather than failing the page.
func (c *Client) ListPayments(ctx context.Context, req gateway.ListRequest) (gateway.ListPage, error) {
	q := url.Values{}
	if !req.BeginTime.IsZero() {
		q.Set("begin_time", req.BeginTime.UTC().Format(time.RFC3339Nano))
	}
	if !req.EndTime.IsZero() {
		q.Set("end_time", req.EndTime.UTC().Format(time.RFC3339Nano))
	}
	if req.SortOrder != "" {
		q.Set("sort_order", string(req.SortOrder))
	}
	if req.Cursor != "" {
		q.Set("cursor", req.Cursor)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.LocationID != "" {
		q.Set("location_id", req.LocationID)
	}

	endpoint := c.baseURL + "/v2/payments?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return gateway.ListPage{}, fmt.Errorf("square: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Square-Version", c.version)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return gateway.ListPage{}, fmt.Errorf("square: list payments: %w", err)
	}
	defer resp.Body.Close()

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode >= 300 {
			return gateway.ListPage{}, &APIError{StatusCode: resp.StatusCode}
		}
		return gateway.ListPage{}, fmt.Errorf("square: decode response: %w", err)
	}
	if resp.StatusCode >= 300 || len(body.Errors) > 0 {
		return gateway.ListPage{}, &APIError{StatusCode: resp.StatusCode, Errors: body.Errors}
	}

	page := gateway.ListPage{
		Payments: make([]gateway.Payment, 0, len(body.Payments)),
		Cursor:   body.Cursor,
	}
	for _, raw := range body.Payments {
		page.Payments = append(page.Payments, gateway.DecodePayment(raw))
	}
	return page, nil
}
