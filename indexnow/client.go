// Package indexnow submits URLs to search engines through the IndexNow protocol.
//
// A Client is bound to one engine endpoint and one ownership key. Single URLs
// are sent as a GET with query parameters, batches as a JSON POST to
// {engine}/indexnow. Every failure is returned as one of ConfigurationError,
// ValidationError, SubmissionError or TransportError.
package indexnow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	serverhttp "github.com/dvcrn/indexnow/internal/http"
)

const (
	httpsPrefix = "https://"

	// MaxURLsPerRequest is the largest urlList accepted by SubmitURLs.
	MaxURLsPerRequest = 10000
)

// HTTPClient is the transport a Client sends its requests through.
type HTTPClient = serverhttp.HTTPClient

// Ownership proves control of the submitted host.
type Ownership struct {
	Key         string `json:"key"`
	KeyLocation string `json:"keyLocation,omitempty"`
}

// Body is the JSON payload of a batch submission.
type Body struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation,omitempty"`
	URLList     []string `json:"urlList"`
}

// Client talks to a single IndexNow endpoint. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	engine     string
	ownership  Ownership
	httpClient HTTPClient
}

// Option configures a Client.
type Option func(*Client)

// WithKeyLocation sets the URL of the hosted key file.
func WithKeyLocation(keyLocation string) Option {
	return func(c *Client) {
		c.ownership.KeyLocation = keyLocation
	}
}

// WithHTTPClient replaces the default transport. A nil client keeps the default.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// ValidateEngine reports whether engine is usable as an IndexNow endpoint: it
// must use https:// and parse as a URL.
func ValidateEngine(engine string) error {
	if !strings.HasPrefix(engine, httpsPrefix) {
		return &ConfigurationError{EngineURL: engine}
	}
	if _, err := url.Parse(engine); err != nil {
		return &ConfigurationError{EngineURL: engine, Err: err}
	}
	return nil
}

// ValidateURLList applies the batch limits checked by SubmitURLs.
func ValidateURLList(urlList []string) error {
	if len(urlList) == 0 {
		return ErrNoURLs
	}
	if len(urlList) > MaxURLsPerRequest {
		return ErrTooManyURLs
	}
	return nil
}

// New creates a Client for the given engine endpoint and key.
// The engine must use https://; one trailing slash is removed.
func New(engine, key string, opts ...Option) (*Client, error) {
	if err := ValidateEngine(engine); err != nil {
		return nil, err
	}

	c := &Client{
		engine:    strings.TrimSuffix(engine, "/"),
		ownership: Ownership{Key: key},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = serverhttp.NewHTTPClient()
	}

	return c, nil
}

// Engine returns the normalized endpoint.
func (c *Client) Engine() string {
	return c.engine
}

// Ownership returns the key and key location sent with each submission.
func (c *Client) Ownership() Ownership {
	return c.ownership
}

// SubmitURL notifies the engine about a single URL.
//
// Parameters are interpolated into the query string as given. Only bytes a
// browser would escape in a query (controls, space, quotes, angle brackets and
// non-ASCII) are percent-encoded; '&', '?' and ':' are sent verbatim.
func (c *Client) SubmitURL(ctx context.Context, pageURL string) error {
	query := fmt.Sprintf("url=%s&key=%s", pageURL, c.ownership.Key)
	if c.ownership.KeyLocation != "" {
		query += "&keyLocation=" + c.ownership.KeyLocation
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.engine+"?"+escapeQuery(query), nil)
	if err != nil {
		return &ConfigurationError{EngineURL: c.engine, Err: err}
	}

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &SubmissionError{URL: pageURL, StatusCode: status, Body: body}
	}
	return nil
}

// SubmitURLs notifies the engine about up to MaxURLsPerRequest URLs of one host.
// The list is validated before any request is made.
func (c *Client) SubmitURLs(ctx context.Context, host string, urlList []string) error {
	if err := ValidateURLList(urlList); err != nil {
		return err
	}

	bodyBytes, err := json.Marshal(Body{
		Host:        host,
		Key:         c.ownership.Key,
		KeyLocation: c.ownership.KeyLocation,
		URLList:     urlList,
	})
	if err != nil {
		return fmt.Errorf("could not marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.engine+"/indexnow", bytes.NewReader(bodyBytes))
	if err != nil {
		return &ConfigurationError{EngineURL: c.engine, Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &SubmissionError{StatusCode: status, Body: body}
	}
	return nil
}

// escapeQuery percent-encodes the bytes of the query percent-encode set: C0
// controls, space, '"', '<', '>' and everything outside printable ASCII.
// '#' is left alone and still starts the fragment.
func escapeQuery(query string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch <= ' ' || ch == '"' || ch == '<' || ch == '>' || ch >= 0x7f {
			b.WriteByte('%')
			b.WriteByte(hex[ch>>4])
			b.WriteByte(hex[ch&0x0f])
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// do executes req and returns the status code and the full response text.
func (c *Client) do(req *http.Request) (int, string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", &TransportError{Op: req.Method + " " + c.engine, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", &TransportError{Op: "read response body", Err: err}
	}
	return resp.StatusCode, string(respBody), nil
}

// IndexNow creates a Client and submits toIndex in one call.
//
// A string is sent as a single URL. For a slice, the first element is the host
// and the remaining elements are submitted as the batch.
func IndexNow[T string | []string](ctx context.Context, toIndex T, engine, key string, opts ...Option) error {
	client, err := New(engine, key, opts...)
	if err != nil {
		return err
	}

	switch v := any(toIndex).(type) {
	case string:
		return client.SubmitURL(ctx, v)
	case []string:
		if len(v) == 0 {
			return client.SubmitURLs(ctx, "", nil)
		}
		return client.SubmitURLs(ctx, v[0], v[1:])
	}
	return nil
}
