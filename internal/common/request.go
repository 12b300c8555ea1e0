package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
)

var (
	// ErrUnauthorized is returned when an upstream rejects the configured credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse is returned when an upstream payload cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// maxErrorBody bounds how much of a failed response body is kept in the error.
const maxErrorBody = 512

// NewCircuitBreaker returns the breaker settings shared by all upstream clients.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// DoRequest executes the request built by buildRequest behind the circuit
// breaker. Failures are classified and returned as-is; there are no retries.
// On success the caller owns resp.Body.
func DoRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(detail)))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", errCircuitOpen, cb.Name(), err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

func statusError(code int, detail string) error {
	var kind error
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		kind = ErrUnauthorized
	case code == http.StatusTooManyRequests:
		kind = errRateLimited
	case code >= 500:
		kind = errServerError
	default:
		kind = errUnexpected
	}
	if detail == "" {
		return fmt.Errorf("%w: %d", kind, code)
	}
	return fmt.Errorf("%w: %d: %s", kind, code, detail)
}

// DecodeJSON decodes the response body into v and closes it.
func DecodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
