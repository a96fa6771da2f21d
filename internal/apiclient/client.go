package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sweet-heaven/internal/middleware"
	"sweet-heaven/internal/model"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:5000/api.
	BaseURL string
	// APIKey is sent as X-API-Key on API calls, never on raw uploads.
	APIKey string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// Transport is the underlying transport; http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Client is a typed client for the storefront REST API.
type Client struct {
	baseURL string
	api     *http.Client
	upload  *http.Client
	logger  zerolog.Logger
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode    int
	Message       string
	CorrelationID string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// New creates a new storefront API client.
func New(opts Options, logger zerolog.Logger) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse API base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("API base URL must be absolute: %s", opts.BaseURL)
	}

	logger = logger.With().Str("component", "api-client").Logger()

	apiTransport := middleware.Chain(opts.Transport,
		middleware.CorrelationID(),
		middleware.APIKey(opts.APIKey),
		middleware.Logging(logger),
	)
	uploadTransport := middleware.Chain(opts.Transport,
		middleware.Logging(logger.With().Str("transfer", "upload").Logger()),
	)

	return &Client{
		baseURL: strings.TrimRight(base.String(), "/"),
		api: &http.Client{
			Transport: otelhttp.NewTransport(apiTransport),
			Timeout:   opts.Timeout,
		},
		upload: &http.Client{
			Transport: otelhttp.NewTransport(uploadTransport),
			Timeout:   opts.Timeout,
		},
		logger: logger,
	}, nil
}

// do sends a JSON request to path (relative to the base URL) and decodes the
// response into out when out is non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.api.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}

	return nil
}

// decodeError turns a non-2xx response into an *APIError.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode:    resp.StatusCode,
		CorrelationID: resp.Request.Header.Get(middleware.HeaderCorrelationID),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(raw) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	var body model.ErrorResponse
	if json.Unmarshal(raw, &body) == nil && (body.Error != "" || body.Message != "") {
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
		if body.CorrelationID != "" {
			apiErr.CorrelationID = body.CorrelationID
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}
