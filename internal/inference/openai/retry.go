package openai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	// Truncated bodies
	if strings.Contains(errStr, "unexpected end of JSON input") || strings.Contains(errStr, "empty response body") {
		return true
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "connection reset") || strings.Contains(errStr, "i/o timeout") {
		return true
	}
	// 5xx and rate limiting
	if strings.Contains(errStr, "response error 5") || strings.Contains(errStr, "response error 429") {
		return true
	}
	return false
}

func (client *Client) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		func() error {
			err := fn()
			if err == nil {
				return nil
			}
			if !isRetryableError(err) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.Delay(client.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().Info("Retrying oracle call",
				"attempt", n+1,
				"model", client.model,
				"error", err,
			)
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)
}
