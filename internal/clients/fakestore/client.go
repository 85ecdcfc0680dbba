// Package fakestore provides a read-only client for the FakeStore API.
package fakestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// ErrNotFound is returned when the upstream resource does not exist.
var ErrNotFound = errors.New("fakestore: resource not found")

// Client issues requests against a FakeStore-compatible endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Product mirrors a FakeStore product payload.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// Rating carries the aggregate product rating.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// ProductQuery narrows Products calls.
type ProductQuery struct {
	Limit    int
	Category string
}

// Categories returns every product category name.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	endpoint, err := c.endpoint("products", "categories")
	if err != nil {
		return nil, err
	}
	var out []string
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Products returns products, optionally restricted to a category and
// truncated to the query limit.
func (c *Client) Products(ctx context.Context, query ProductQuery) ([]Product, error) {
	parts := []string{"products"}
	if category := strings.TrimSpace(query.Category); category != "" {
		parts = append(parts, "category", category)
	}
	endpoint, err := c.endpoint(parts...)
	if err != nil {
		return nil, err
	}

	var out []Product
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id int) (Product, error) {
	endpoint, err := c.endpoint("products", strconv.Itoa(id))
	if err != nil {
		return Product{}, err
	}
	var out Product
	if err := c.get(ctx, endpoint, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

func (c *Client) endpoint(parts ...string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("fakestore: base url not configured")
	}
	joined, err := url.JoinPath(c.baseURL, parts...)
	if err != nil {
		return "", fmt.Errorf("fakestore: build endpoint: %w", err)
	}
	return joined, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("fakestore: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fakestore: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fakestore: status %d for %s: %s", resp.StatusCode, endpoint, drainError(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("fakestore: decode %s: %w", endpoint, err)
	}
	return nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
