// Package api provides the low-level JSON transport for the PIDE REST
// interfaces.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmontalvo/go-pide/internal/auth"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Transport handles HTTP communication with a PIDE REST service. Every
// request carries the platform's `out=json` selector, and the body (or,
// for GET, the query string) is the flat PIDE field object.
type Transport struct {
	BaseURL     *url.URL
	HTTPClient  *http.Client
	Credentials *auth.Credentials
	UserAgent   string
}

// NewTransport creates a Transport for the given service base URL.
// Credentials may be nil for services that carry their own credential
// fields inside the request payload.
func NewTransport(baseURL string, creds *auth.Credentials, httpClient *http.Client) (*Transport, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
		}
	}

	return &Transport{
		BaseURL:     u,
		HTTPClient:  httpClient,
		Credentials: creds,
		UserAgent:   "go-pide/1.0",
	}, nil
}

// Request represents one REST call: the endpoint under the service base
// URL plus the method-specific PIDE fields.
type Request struct {
	Method   string
	Endpoint string
	Extra    map[string]any
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Do executes an API request and returns the raw response.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Limit response body size to prevent memory exhaustion
	limitedReader := io.LimitReader(httpResp.Body, defaultMaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(body)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u := t.BaseURL.JoinPath(req.Endpoint)
	fields := t.Credentials.Body(req.Extra)

	q := u.Query()
	q.Set("out", "json")

	var bodyReader io.Reader
	if req.Method == http.MethodGet {
		for k, v := range fields {
			q.Set(k, fmt.Sprint(v))
		}
	} else {
		data, err := json.Marshal(map[string]any{"PIDE": fields})
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.UserAgent)

	return httpReq, nil
}
