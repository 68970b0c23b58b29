// Package client is an HTTP client for the string analyzer REST API.
package client

import (
	"bytes"
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

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/SanteonNL/stringanalyzer/cmd/stringanalyzer/types"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type StringAnalyzerClient struct {
	BaseURI    string
	HTTPClient *http.Client
	log        zerolog.Logger
}

// ListResponse is the body of GET /strings.
type ListResponse struct {
	Data           []types.StringRecord   `json:"data"`
	Count          int                    `json:"count"`
	FiltersApplied map[string]interface{} `json:"filters_applied"`
}

// InterpretedQuery echoes how the server read a natural-language query.
type InterpretedQuery struct {
	Original      string          `json:"original"`
	Kind          string          `json:"kind"`
	ParsedFilters types.FilterSet `json:"parsed_filters"`
	Note          string          `json:"note,omitempty"`
}

// QueryResponse is the body of GET /strings/filter-by-natural-language.
type QueryResponse struct {
	Data             []types.StringRecord `json:"data"`
	Count            int                  `json:"count"`
	InterpretedQuery InterpretedQuery     `json:"interpreted_query"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewStringAnalyzerClient creates a client that retries failed requests up to
// retries times.
func NewStringAnalyzerClient(baseURI string, retries int, log zerolog.Logger) *StringAnalyzerClient {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	retryClient.Logger = leveledLogger{log: log}
	// Hand the final response back so its status and detail can be reported.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &StringAnalyzerClient{
		BaseURI:    strings.TrimSuffix(baseURI, "/"),
		HTTPClient: retryClient.StandardClient(),
		log:        log,
	}
}

func (c *StringAnalyzerClient) Health(ctx context.Context) (string, error) {
	var resp map[string]string
	if err := c.get(ctx, "/health", &resp); err != nil {
		return "", err
	}
	return resp["status"], nil
}

func (c *StringAnalyzerClient) Create(ctx context.Context, value string) (*types.StringRecord, error) {
	var record types.StringRecord
	if err := c.post(ctx, "/strings", map[string]string{"value": value}, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *StringAnalyzerClient) Get(ctx context.Context, value string) (*types.StringRecord, error) {
	var record types.StringRecord
	if err := c.get(ctx, "/strings/"+url.PathEscape(value), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *StringAnalyzerClient) Delete(ctx context.Context, value string) error {
	return c.do(ctx, http.MethodDelete, "/strings/"+url.PathEscape(value), nil, nil)
}

func (c *StringAnalyzerClient) List(ctx context.Context, filters types.FilterSet, page types.Page) (*ListResponse, error) {
	query := pageValues(page)
	for name, v := range filters.Applied() {
		query.Set(name, fmt.Sprint(v))
	}

	resp := new(ListResponse)
	if err := c.get(ctx, "/strings?"+query.Encode(), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *StringAnalyzerClient) FilterByNaturalLanguage(ctx context.Context, q string, page types.Page) (*QueryResponse, error) {
	query := pageValues(page)
	query.Set("query", q)

	resp := new(QueryResponse)
	if err := c.get(ctx, "/strings/filter-by-natural-language?"+query.Encode(), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func pageValues(page types.Page) url.Values {
	query := url.Values{}
	if page.Skip > 0 {
		query.Set("skip", strconv.Itoa(page.Skip))
	}
	if page.Limit > 0 {
		query.Set("limit", strconv.Itoa(page.Limit))
	}
	return query
}

// HTTP helper methods
func (c *StringAnalyzerClient) get(ctx context.Context, endpoint string, response any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, response)
}

func (c *StringAnalyzerClient) post(ctx context.Context, endpoint string, body, response any) error {
	return c.do(ctx, http.MethodPost, endpoint, body, response)
}

func (c *StringAnalyzerClient) do(ctx context.Context, method, endpoint string, body, response any) error {
	req, err := c.prepareRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	return c.sendRequest(req, response)
}

func (c *StringAnalyzerClient) prepareRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURI+endpoint, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *StringAnalyzerClient) sendRequest(req *http.Request, response any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Msg("Response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(bodyBytes))}
		var e errorResponse
		if json.Unmarshal(bodyBytes, &e) == nil && e.Detail != "" {
			apiErr.Detail = e.Detail
		}
		return apiErr
	}

	if response != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, response); err != nil {
			return fmt.Errorf("failed to parse response JSON: %w\nBody: %s", err, string(bodyBytes))
		}
	}

	return nil
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.event(l.log.Error(), msg, kv) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.event(l.log.Warn(), msg, kv) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.event(l.log.Debug(), msg, kv) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.event(l.log.Trace(), msg, kv) }

func (leveledLogger) event(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		e = e.Interface(fmt.Sprint(kv[i]), kv[i+1])
	}
	e.Msg(msg)
}
