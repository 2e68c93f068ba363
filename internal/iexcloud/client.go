// Package iexcloud implements a read-only client for the IEX Cloud stock API.
package iexcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/elbart/pecunia/internal/model"
)

const defaultBaseURL = "https://cloud.iexapis.com/stable"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=iexcloud_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the IEX Cloud API. All requests carry the API token
// as a query parameter; responses are JSON.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the actual requests.
	httpClient HTTPClient
	// query contains query parameters sent with every request (the token).
	query url.Values
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new IEX Cloud API client.
func NewClient(apiToken string, options ...Option) (*Client, error) {
	if apiToken == "" {
		return nil, fmt.Errorf("api token must not be empty")
	}
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		query:      url.Values{},
	}
	// Every IEX Cloud request is authenticated via the token query parameter.
	// https://iexcloud.io/docs/api/#authentication
	client.query.Add("token", apiToken)
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// Company fetches company information for the specified symbol.
// https://iexcloud.io/docs/api/#company
func (c *Client) Company(ctx context.Context, symbol string) (*model.CompanyProfile, UsageReport, error) {
	if symbol == "" {
		return nil, UsageReport{}, fmt.Errorf("symbol must not be empty")
	}
	var out model.CompanyProfile
	usage, err := c.get(ctx, fmt.Sprintf("/stock/%s/company", url.PathEscape(symbol)), &out)
	if err != nil {
		return nil, usage, err
	}
	return &out, usage, nil
}

// IntradayPrices fetches the current day's intraday prices.
// https://iexcloud.io/docs/api/#intraday-prices
func (c *Client) IntradayPrices(ctx context.Context, symbol string) ([]model.PriceObservation, UsageReport, error) {
	if symbol == "" {
		return nil, UsageReport{}, fmt.Errorf("symbol must not be empty")
	}
	var out []model.PriceObservation
	usage, err := c.get(ctx, fmt.Sprintf("/stock/%s/intraday-prices", url.PathEscape(symbol)), &out)
	if err != nil {
		return nil, usage, err
	}
	return out, usage, nil
}

// HistoricalPrices fetches minute-resolution prices for a single past day.
// The date must already be in the wire format YYYYMMDD; it is passed through
// unmodified.
// https://iexcloud.io/docs/api/#historical-prices
func (c *Client) HistoricalPrices(ctx context.Context, symbol, date string) ([]model.PriceObservation, UsageReport, error) {
	if symbol == "" {
		return nil, UsageReport{}, fmt.Errorf("symbol must not be empty")
	}
	var out []model.PriceObservation
	usage, err := c.get(ctx, fmt.Sprintf("/stock/%s/chart/date/%s", url.PathEscape(symbol), url.PathEscape(date)), &out)
	if err != nil {
		return nil, usage, err
	}
	return out, usage, nil
}

// get performs the actual GET request and decodes the JSON body into out.
// The usage report is filled from whatever response headers were received,
// including on non-2xx responses.
func (c *Client) get(ctx context.Context, path string, out any) (UsageReport, error) {
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, c.query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return UsageReport{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UsageReport{}, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	usage := usageFromHeader(resp.Header)

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return usage, fmt.Errorf("GET %s -> %d: %s", path, resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return usage, fmt.Errorf("decoding response: %w", err)
	}
	return usage, nil
}
