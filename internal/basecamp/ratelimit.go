package basecamp

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nkiryanov/campgate/internal/apperrors"
	"github.com/nkiryanov/campgate/internal/logger"
)

const (
	defaultMaxAttempts = 4

	backoffBase      = 1 * time.Second
	backoffJitterMax = 1 * time.Second
	backoffCap       = 30 * time.Second
)

// retryDecision is the outcome of examining one throttled response.
// Keeping it a plain value keeps the decision logic separate from the
// sleep side effect and testable without a clock.
type retryDecision struct {
	Wait   time.Duration
	GiveUp bool
}

// decideRetry resolves the wait for a 429 response. The remote Retry-After
// header wins when present and parseable, otherwise exponential backoff with
// jitter. Once attempts are exhausted the backoff is still computed so the
// caller can report a wait hint.
func decideRetry(header http.Header, attempt int, maxAttempts int, now time.Time) retryDecision {
	if attempt >= maxAttempts {
		return retryDecision{Wait: backoffDelay(attempt), GiveUp: true}
	}

	if wait, ok := parseRetryAfter(header.Get("Retry-After"), now); ok {
		return retryDecision{Wait: wait}
	}

	return retryDecision{Wait: backoffDelay(attempt)}
}

// backoffDelay returns min(1s * 2^attempt + jitter up to 1s, 30s)
func backoffDelay(attempt int) time.Duration {
	delay := backoffBase << attempt
	delay += time.Duration(rand.Int64N(int64(backoffJitterMax)))
	if delay > backoffCap {
		delay = backoffCap
	}
	return delay
}

// parseRetryAfter handles both forms of the header: integer seconds and
// HTTP-date. A date in the past floors at zero.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			seconds = 0
		}
		return time.Duration(seconds) * time.Second, true
	}

	if at, err := http.ParseTime(value); err == nil {
		wait := at.Sub(now)
		if wait < 0 {
			wait = 0
		}
		return wait, true
	}

	return 0, false
}

// withRateLimit wraps single-attempt fn with 429-aware retry. Any non-429
// outcome (success or error) is returned unmodified on the first attempt it
// happens. After maxAttempts 429s the request fails with RateLimitedError.
func withRateLimit(ctx context.Context, log logger.Logger, fn func(context.Context) (*http.Response, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		decision := decideRetry(resp.Header, attempt, defaultMaxAttempts, time.Now())

		// The throttled body carries nothing useful
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if decision.GiveUp {
			rateLimitExhausted.Inc()
			log.Warn("Rate limit retries exhausted", "attempts", attempt, "retry_after", decision.Wait)
			return nil, &apperrors.RateLimitedError{RetryAfter: decision.Wait}
		}

		rateLimitRetries.Inc()
		log.Debug("Request throttled, backing off", "attempt", attempt, "wait", decision.Wait)

		if err := sleep(ctx, decision.Wait); err != nil {
			return nil, err
		}
	}
}

// sleep waits for d or until ctx is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
