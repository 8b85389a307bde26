package common

import (
	"time"

	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"github.com/hashicorp/go-retryablehttp"
)

// RetryConfig holds the configuration for HTTP retry logic
type RetryConfig struct {
	// Maximum number of retries, 0 sends every request exactly once
	RetryMax int
	// Minimum time to wait between retries
	RetryWaitMin time.Duration
	// Maximum time to wait between retries
	RetryWaitMax time.Duration
	// Function to determine if a request should be retried
	CheckRetry retryablehttp.CheckRetry
	// Per-attempt timeout, 0 disables it
	Timeout time.Duration
}

// DefaultRetryConfig performs a single attempt with no timeout
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		RetryMax:     0,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 5 * time.Second,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
	}
}

// RetryConfigFromSettings maps the YAML retry block onto a RetryConfig
func RetryConfigFromSettings(r Retry, apiTimeout int) RetryConfig {
	config := DefaultRetryConfig()
	if r.Max > 0 {
		config.RetryMax = r.Max
	}
	if r.WaitMinSec > 0 {
		config.RetryWaitMin = time.Duration(r.WaitMinSec) * time.Second
	}
	if r.WaitMaxSec > 0 {
		config.RetryWaitMax = time.Duration(r.WaitMaxSec) * time.Second
	}
	if apiTimeout > 0 {
		config.Timeout = time.Duration(apiTimeout) * time.Second
	}
	return config
}

// NewRetryableClient creates a new HTTP client with retry capabilities
func NewRetryableClient(config RetryConfig) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()

	retryClient.RetryMax = config.RetryMax
	retryClient.RetryWaitMin = config.RetryWaitMin
	retryClient.RetryWaitMax = config.RetryWaitMax
	retryClient.HTTPClient.Timeout = config.Timeout

	logger.Debugf("Created retryable client with max retries: %d, min wait: %s, max wait: %s, timeout: %s",
		config.RetryMax, config.RetryWaitMin, config.RetryWaitMax, config.Timeout)

	// Only set CheckRetry if provided (non-nil)
	if config.CheckRetry != nil {
		retryClient.CheckRetry = config.CheckRetry
	}

	// Surface the remote error body instead of "giving up after N attempts"
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	retryClient.Logger = &zapRetryLogger{}

	return retryClient
}

// zapRetryLogger adapts our zap logger to the interface required by retryablehttp
type zapRetryLogger struct{}

func (z *zapRetryLogger) Error(msg string, keysAndValues ...interface{}) {
	logger.With(keysAndValues...).Error(msg)
}

func (z *zapRetryLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.With(keysAndValues...).Debug(msg)
}

func (z *zapRetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	logger.With(keysAndValues...).Debug(msg)
}

func (z *zapRetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	logger.With(keysAndValues...).Warn(msg)
}
