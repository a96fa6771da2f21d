package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Header names set on outgoing API requests.
const (
	HeaderAPIKey        = "X-API-Key"
	HeaderCorrelationID = "X-Correlation-ID"
)

// Middleware decorates an outgoing http.RoundTripper.
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(r).
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Chain wraps base so that the first middleware is outermost.
func Chain(base http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		base = middlewares[i](base)
	}
	return base
}

// APIKey attaches the API key to every request that does not already carry one.
// An empty key disables the header.
func APIKey(apiKey string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if apiKey == "" || r.Header.Get(HeaderAPIKey) != "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set(HeaderAPIKey, apiKey)
			return next.RoundTrip(r)
		})
	}
}

// CorrelationID tags each request with a fresh UUID unless the caller set one.
func CorrelationID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(HeaderCorrelationID) != "" {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			r.Header.Set(HeaderCorrelationID, uuid.NewString())
			return next.RoundTrip(r)
		})
	}
}

// Logging logs outgoing requests with timing information.
func Logging(logger zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			resp, err := next.RoundTrip(r)

			duration := time.Since(start)
			if err != nil {
				logger.Error().
					Err(err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("correlation_id", r.Header.Get(HeaderCorrelationID)).
					Dur("duration", duration).
					Msg("http request failed")
				return nil, err
			}

			event := logger.Debug()
			if resp.StatusCode >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", resp.StatusCode).
				Str("correlation_id", r.Header.Get(HeaderCorrelationID)).
				Dur("duration", duration).
				Msg("http request")

			return resp, nil
		})
	}
}
