package moonraker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Client wraps the Moonraker HTTP API. It carries no probing logic; callers
// interpret the maps and log entries it returns.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:7125"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
	}
}

// QueryObject fetches the status map of a named printer object. A nil map
// with a nil error means the controller does not expose that object.
func (c *Client) QueryObject(ctx context.Context, object string) (map[string]any, error) {
	params := url.Values{}
	params.Set(object, "")
	body, err := c.do(ctx, http.MethodGet, "/printer/objects/query", params)
	if err != nil {
		return nil, err
	}
	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode object query: %w", err)
	}
	return resp.Result.Status[object], nil
}

// Query looks up object[key], or the whole object map when key is empty.
// Absence of either is reported as a warning and returns nil, matching the
// degrade-gracefully contract expected by detection and leveling code.
func (c *Client) Query(ctx context.Context, object, key string) (any, error) {
	status, err := c.QueryObject(ctx, object)
	if err != nil {
		return nil, err
	}
	if status == nil {
		slog.Warn("printer object is not configured", "object", object, "key", key)
		return nil, nil
	}
	if key == "" {
		return status, nil
	}
	value, ok := status[key]
	if !ok {
		slog.Warn("printer object key is not configured", "object", object, "key", key)
		return nil, nil
	}
	return value, nil
}

// RunGCode submits a gcode script for execution. Fire and forget: the only
// acknowledgement is the HTTP transaction itself.
func (c *Client) RunGCode(ctx context.Context, script string) error {
	params := url.Values{}
	params.Set("script", script)
	_, err := c.do(ctx, http.MethodPost, "/printer/gcode/script", params)
	if err != nil {
		return fmt.Errorf("gcode %q: %w", script, err)
	}
	return nil
}

// GCodeStore returns the most recent count entries of the gcode response
// store. The store is a bounded upstream ring buffer; entries older than its
// capacity are gone and the client does not compensate.
func (c *Client) GCodeStore(ctx context.Context, count int) ([]GCodeEntry, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	body, err := c.do(ctx, http.MethodGet, "/server/gcode_store", params)
	if err != nil {
		return nil, err
	}
	var resp gcodeStoreResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode gcode store: %w", err)
	}
	return resp.Result.GCodeStore, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	request, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		request.Header.Set("X-Api-Key", c.apiKey)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(response.Body)
	if readErr != nil {
		return nil, fmt.Errorf("read response body: %w", readErr)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &APIError{StatusCode: response.StatusCode, Body: body}
	}
	return body, nil
}
