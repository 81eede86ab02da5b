// Package client is the datasource adapter of the plugin: an HTTP client
// for the doctable backend.
//
// It implements plugin.OptionSource so a query editor can use it for option
// lookups, and registers itself as the Datasource role:
//
//	import _ "github.com/leapstack-labs/doctable/pkg/client"
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/plugin"
	"resty.dev/v3"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// ErrNoURL is returned when a datasource is instantiated without a URL.
var ErrNoURL = errors.New("datasource url is not configured")

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected response code from the datasource: %d", e.Code)
	}
	return fmt.Sprintf("unexpected response code from the datasource: %d - %s", e.Code, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to a doctable server.
type Client struct {
	resty  *resty.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
	headers map[string]string
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.http = c }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHeader adds a header to every request, e.g. Authorization.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	r := resty.New()
	if o.http != nil {
		r = resty.NewWithClient(o.http)
	}
	r.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(o.timeout).
		SetHeader("Accept", "application/json")
	for k, v := range o.headers {
		r.SetHeader(k, v)
	}

	return &Client{resty: r, logger: o.logger}
}

// TestDatasource reports the backend status. An unavailable backend is a
// status, not an error.
func (c *Client) TestDatasource(ctx context.Context) (core.DatasourceStatus, error) {
	var status core.DatasourceStatus
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&status).
		SetError(&status).
		Get("/")
	if err != nil {
		return core.DatasourceStatus{}, fmt.Errorf("failed to reach datasource: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusServiceUnavailable:
		return status, nil
	default:
		return core.DatasourceStatus{}, &StatusError{Code: resp.StatusCode(), Message: resp.String()}
	}
}

// Query executes the request's targets.
func (c *Client) Query(ctx context.Context, req *core.QueryRequest) ([]core.Metrics, error) {
	var raw json.RawMessage
	if err := c.post(ctx, "/query", req, &raw); err != nil {
		return nil, err
	}
	return core.DecodeMetrics(raw)
}

// MetricFindQuery returns option suggestions for query.
func (c *Client) MetricFindQuery(ctx context.Context, query string) ([]core.MetricOption, error) {
	var opts []core.MetricOption
	if err := c.post(ctx, "/search", &core.SearchRequest{Target: query}, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Annotations fetches annotation events.
func (c *Client) Annotations(ctx context.Context, req *core.AnnotationRequest) ([]core.Annotation, error) {
	var annotations []core.Annotation
	if err := c.post(ctx, "/annotations", req, &annotations); err != nil {
		return nil, err
	}
	return annotations, nil
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var apiErr errorBody
	resp, err := c.resty.R().
		SetContext(ctx).
		SetContentType("application/json").
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("datasource request", "path", path, "status", resp.StatusCode())
	if resp.StatusCode() != http.StatusOK {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.String()
		}
		return &StatusError{Code: resp.StatusCode(), Message: msg}
	}
	return nil
}

// Ensure Client can serve the query editor.
var _ plugin.OptionSource = (*Client)(nil)

func init() {
	plugin.Register(plugin.Binding{
		Role: plugin.RoleDatasource,
		New: func(scope *plugin.Scope) (any, error) {
			if scope.Settings.URL == "" {
				return nil, ErrNoURL
			}
			return New(scope.Settings.URL, WithLogger(scope.Logger)), nil
		},
	})
}
