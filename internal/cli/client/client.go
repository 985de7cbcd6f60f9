package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ugel-satipo/portal/internal/cli/api"
	"github.com/ugel-satipo/portal/internal/cli/credstore"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrUnauthorized matches any APIError carrying a 401
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransport wraps failures where no usable response came back
	ErrTransport = errors.New("transport failure")
)

// APIError is a non-2xx answer from the API. Message is the server's
// human-readable text, meant to be shown verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed (status %d)", e.Status)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Client represents an HTTP client for the UGEL API
type Client struct {
	baseURL    string
	httpClient *http.Client
	transport  *authTransport
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient uses hc for requests; its transport is wrapped, not replaced
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		clone := *hc
		if clone.Transport != nil {
			c.transport.base = clone.Transport
		}
		clone.Transport = c.transport
		c.httpClient = &clone
	}
}

// WithTimeout overrides the 30s request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger logs session invalidations
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.transport.logger = logger
	}
}

// New creates a new API client. Every request carries the token held by
// store; a 401 on an authenticated request clears store.
func New(baseURL string, store credstore.Store, opts ...Option) *Client {
	transport := &authTransport{
		base:   http.DefaultTransport,
		store:  store,
		logger: zerolog.Nop(),
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnUnauthorized registers fn to run after the transport clears the store on a 401
func (c *Client) OnUnauthorized(fn func(*http.Request)) {
	c.transport.setHandler(fn)
}

// envelope is the API's common response shape
type envelope[T any] struct {
	Success    bool            `json:"success"`
	Data       T               `json:"data"`
	Pagination *api.Pagination `json:"pagination"`
	Message    string          `json:"message"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ListOptions carries pagination and filters for list endpoints
type ListOptions struct {
	Page    int
	Limit   int
	Filters map[string]string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("pagina", fmt.Sprint(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limite", fmt.Sprint(o.Limit))
	}
	for k, v := range o.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(method, path string, payload any) (request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	return request{method: method, path: path, body: bytes.NewReader(data), contentType: "application/json"}, nil
}

func multipartRequest(method, path string, fields url.Values, file *api.Upload) (request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				return request{}, fmt.Errorf("failed to encode form: %w", err)
			}
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("archivo", file.Name)
		if err != nil {
			return request{}, fmt.Errorf("failed to encode file: %w", err)
		}
		if _, err := io.Copy(fw, file.Reader); err != nil {
			return request{}, fmt.Errorf("failed to read file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return request{}, fmt.Errorf("failed to encode form: %w", err)
	}
	return request{method: method, path: path, body: &buf, contentType: mw.FormDataContentType()}, nil
}

// send performs r and returns the response when it is 2xx. The caller closes the body.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = eb.Message
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}
	}
	return apiErr
}

// do performs r and decodes a 2xx JSON body into out (if non-nil)
func (c *Client) do(ctx context.Context, r request, out any) error {
	resp, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response: %w", ErrTransport, err)
	}
	return nil
}

func getData[T any](ctx context.Context, c *Client, r request) (T, error) {
	var env envelope[T]
	err := c.do(ctx, r, &env)
	return env.Data, err
}

func getPage[T any](ctx context.Context, c *Client, path string, opts ListOptions) (*api.Page[T], error) {
	var env envelope[[]T]
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: opts.values()}, &env); err != nil {
		return nil, err
	}
	page := &api.Page[T]{Items: env.Data}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	}
	return page, nil
}

func pathID(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}
