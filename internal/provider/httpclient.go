package provider

import (
	"log/slog"
	"time"

	"resty.dev/v3"
)

const (
	// Transport-level retry configuration. Only transient network glitches
	// are retried here; rate limits and outages surface as classified
	// failures so the failover layer can switch providers instead of
	// burning quota on a throttled source.
	transportRetryCount    = 1
	transportRetryWaitTime = 500 * time.Millisecond
)

// NewHTTPClient creates an HTTP client shared by the provider packages.
func NewHTTPClient(baseURL string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(transportRetryCount).
		SetRetryWaitTime(transportRetryWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook)

	return client
}

// retryCondition allows a retry only on connection-level errors and 408.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return r.StatusCode() == 408
}

// retryHook logs retry attempts for observability
func retryHook(r *resty.Response, err error) {
	if err != nil {
		slog.Debug("retrying request due to error",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"error", err.Error())
		return
	}

	slog.Debug("retrying request due to status code",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode())
}
