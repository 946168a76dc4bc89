// Package telnyx is a minimal client for the Telnyx v2 REST API, covering
// number search, number orders, and phone number listing.
package telnyx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
)

// DefaultBaseURL is the production Telnyx API endpoint.
const DefaultBaseURL = "https://api.telnyx.com/v2"

const maxRetries = 3

// Client talks to the Telnyx v2 API with bearer authentication. Transport
// errors and 5xx responses are retried with fibonacci backoff.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Telnyx API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from Telnyx.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telnyx: %d: %s", e.StatusCode, e.Detail)
}

type apiErrorBody struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Meta is Telnyx's pagination envelope.
type Meta struct {
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
	PageNumber   int `json:"page_number"`
	PageSize     int `json:"page_size"`
}

// AvailableNumber is one entry from the available_phone_numbers listing.
type AvailableNumber struct {
	PhoneNumber       string `json:"phone_number"`
	PhoneNumberType   string `json:"phone_number_type"`
	RegionInformation []struct {
		RegionType string `json:"region_type"`
		RegionName string `json:"region_name"`
	} `json:"region_information"`
	CostInformation struct {
		UpfrontCost string `json:"upfront_cost"`
		MonthlyCost string `json:"monthly_cost"`
	} `json:"cost_information"`
	Features []struct {
		Name string `json:"name"`
	} `json:"features"`
}

// OrderedNumber is one number within a number order.
type OrderedNumber struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Status      string `json:"status"`
}

// NumberOrder is a Telnyx number purchase order.
type NumberOrder struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
	PhoneNumbers []OrderedNumber `json:"phone_numbers"`
}

// PhoneNumber is an owned Telnyx phone number resource.
type PhoneNumber struct {
	ID           string `json:"id"`
	PhoneNumber  string `json:"phone_number"`
	ConnectionID string `json:"connection_id"`
	Status       string `json:"status"`
}

// SearchParams narrows an available-number search.
type SearchParams struct {
	CountryCode string // defaults to US
	AreaCode    string
	Contains    string
	Features    []string
	Limit       int
}

// SearchAvailableNumbers lists purchasable numbers matching params.
func (c *Client) SearchAvailableNumbers(ctx context.Context, params SearchParams) ([]AvailableNumber, *Meta, error) {
	country := params.CountryCode
	if country == "" {
		country = "US"
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	q := url.Values{}
	q.Set("filter[country_code]", country)
	q.Set("page[size]", strconv.Itoa(limit))
	if country == "US" || country == "CA" {
		q.Set("filter[best_effort]", "true")
	}
	if params.AreaCode != "" {
		q.Set("filter[national_destination_code]", params.AreaCode)
	}
	if params.Contains != "" {
		q.Set("filter[contains]", params.Contains)
	}
	for _, f := range params.Features {
		q.Add("filter[features]", f)
	}

	var out struct {
		Data []AvailableNumber `json:"data"`
		Meta *Meta             `json:"meta"`
	}
	if err := c.do(ctx, http.MethodGet, "/available_phone_numbers", q, nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Data, out.Meta, nil
}

// CreateNumberOrder purchases the given phone numbers.
func (c *Client) CreateNumberOrder(ctx context.Context, phoneNumbers []string) (*NumberOrder, error) {
	type orderNumber struct {
		PhoneNumber string `json:"phone_number"`
	}
	body := struct {
		PhoneNumbers []orderNumber `json:"phone_numbers"`
	}{}
	for _, n := range phoneNumbers {
		body.PhoneNumbers = append(body.PhoneNumbers, orderNumber{PhoneNumber: n})
	}

	var out struct {
		Data *NumberOrder `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/number_orders", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ListNumberOrders returns one page of number orders.
func (c *Client) ListNumberOrders(ctx context.Context, page, size int) ([]NumberOrder, *Meta, error) {
	q := url.Values{}
	q.Set("page[number]", strconv.Itoa(page))
	q.Set("page[size]", strconv.Itoa(size))

	var out struct {
		Data []NumberOrder `json:"data"`
		Meta *Meta         `json:"meta"`
	}
	if err := c.do(ctx, http.MethodGet, "/number_orders", q, nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Data, out.Meta, nil
}

// ListPhoneNumbers returns one page of owned numbers for a connection.
func (c *Client) ListPhoneNumbers(ctx context.Context, connectionID string, page, size int) ([]PhoneNumber, *Meta, error) {
	q := url.Values{}
	q.Set("filter[connection_id]", connectionID)
	q.Set("page[number]", strconv.Itoa(page))
	q.Set("page[size]", strconv.Itoa(size))

	var out struct {
		Data []PhoneNumber `json:"data"`
		Meta *Meta         `json:"meta"`
	}
	if err := c.do(ctx, http.MethodGet, "/phone_numbers", q, nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Data, out.Meta, nil
}

// do performs one API call with retries on transport errors and 5xx.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	backoff := retry.WithMaxRetries(maxRetries, retry.NewFibonacci(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read response: %w", err))
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Detail: "Telnyx API error"}
			var eb apiErrorBody
			if json.Unmarshal(data, &eb) == nil && len(eb.Errors) > 0 {
				if eb.Errors[0].Detail != "" {
					apiErr.Detail = eb.Errors[0].Detail
				} else if eb.Errors[0].Title != "" {
					apiErr.Detail = eb.Errors[0].Title
				}
			}
			if resp.StatusCode >= 500 {
				return retry.RetryableError(apiErr)
			}
			return apiErr
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	})
}
