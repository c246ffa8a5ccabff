package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// APIError is a non-2xx (or in-band error) response from an upstream API.
type APIError struct {
	Service    Service
	StatusCode int
	Code       int
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s api error %d (code %d): %s", e.Service, e.StatusCode, e.Code, e.Body)
	}
	return fmt.Sprintf("%s api error %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RetryPolicy is applied per request. MaxAttempts of 1 means no retry.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

var NoRetry = RetryPolicy{MaxAttempts: 1}

func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Requester performs authenticated JSON GETs with rate limiting and the retry policy.
type Requester struct {
	Service Service
	HTTP    *http.Client
	Retry   RetryPolicy
	Logger  logrus.FieldLogger

	limiter *time.Ticker
}

func NewRequester(service Service, timeout time.Duration, retry RetryPolicy, ratePerMin int, logger logrus.FieldLogger) *Requester {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Requester{
		Service: service,
		HTTP:    &http.Client{Timeout: timeout},
		Retry:   retry,
		Logger:  logger,
	}
	if ratePerMin > 0 {
		r.limiter = time.NewTicker(time.Minute / time.Duration(ratePerMin))
	}
	return r
}

func (r *Requester) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.limiter.C:
		return nil
	}
}

// GetJSON issues GET endpoint with the given headers and decodes the body into dest.
func (r *Requester) GetJSON(ctx context.Context, endpoint string, header http.Header, dest interface{}) error {
	var err error
	for attempt := 1; attempt <= r.Retry.MaxAttempts; attempt++ {
		err = r.getOnce(ctx, endpoint, header, dest)
		if err == nil || !retryable(err) || attempt == r.Retry.MaxAttempts {
			return err
		}
		r.Logger.WithFields(logrus.Fields{
			"service": r.Service,
			"attempt": attempt,
		}).WithError(err).Warn("retrying upstream request")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Retry.Backoff * time.Duration(attempt)):
		}
	}
	return err
}

func (r *Requester) getOnce(ctx context.Context, endpoint string, header http.Header, dest interface{}) error {
	if err := r.wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Service: r.Service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%s: decode response: %w", r.Service, err)
	}
	return nil
}
