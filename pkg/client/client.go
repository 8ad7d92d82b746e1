package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/braunma/netbox-topology/pkg/utils"
)

// DefaultPageSize is the page size requested from list endpoints
const DefaultPageSize = 250

// Options tune the HTTP side of the client
type Options struct {
	Timeout  time.Duration
	Insecure bool
	PageSize int
}

// NetBoxClient reads objects from the NetBox REST API
type NetBoxClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      *CacheManager
	logger     *utils.Logger
	pageSize   int
}

// NewClient creates a new NetBox API client
func NewClient(baseURL, token string, opts Options, logger *utils.Logger) *NetBoxClient {
	if logger == nil {
		logger = utils.NewLogger(false)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	httpClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.Insecure},
		},
	}

	client := &NetBoxClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		logger:     logger,
		pageSize:   opts.PageSize,
	}
	client.cache = NewCacheManager(client)
	return client
}

// Object represents a generic NetBox object
type Object map[string]interface{}

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Request makes a GET request to an API path or to an absolute URL returned by NetBox
func (c *NetBoxClient) Request(ctx context.Context, target string) ([]byte, error) {
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Filter retrieves every object of an endpoint matching the given filters
func (c *NetBoxClient) Filter(ctx context.Context, app, endpoint string, filters map[string]interface{}) ([]Object, error) {
	return c.List(ctx, fmt.Sprintf("/api/%s/%s/", app, endpoint), filters)
}

// List makes GET requests following the "next" links until every page is read
func (c *NetBoxClient) List(ctx context.Context, path string, filters map[string]interface{}) ([]Object, error) {
	next := path + "?" + encodeFilters(filters, c.pageSize)

	var all []Object
	for next != "" {
		body, err := c.Request(ctx, next)
		if err != nil {
			return nil, err
		}

		var page struct {
			Next    *string  `json:"next"`
			Results []Object `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			// Try unmarshaling as direct array
			var direct []Object
			if err2 := json.Unmarshal(body, &direct); err2 == nil {
				return append(all, direct...), nil
			}
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		all = append(all, page.Results...)
		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}
	return all, nil
}

// encodeFilters renders filters in a stable order with the page size appended
func encodeFilters(filters map[string]interface{}, limit int) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Add(k, fmt.Sprintf("%v", filters[k]))
	}
	values.Set("limit", fmt.Sprintf("%d", limit))
	return values.Encode()
}

// Cache returns the cache manager
func (c *NetBoxClient) Cache() *CacheManager {
	return c.cache
}

// Logger returns the logger
func (c *NetBoxClient) Logger() *utils.Logger {
	return c.logger
}
