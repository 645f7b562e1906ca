package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var defaultBackoff = backoffPolicy{
	base:    2 * time.Second,
	ceiling: 30 * time.Second,
}

type backoffPolicy struct {
	base    time.Duration
	ceiling time.Duration
}

// delay doubles the base per prior attempt, clamped to the ceiling.
func (p backoffPolicy) delay(attempt int) time.Duration {
	base := p.base
	if base < 0 {
		base = defaultBackoff.base
	}
	if base == 0 {
		return 0
	}
	d := base
	for i := 1; i < attempt; i++ {
		if d > p.max()/2 {
			d = p.max()
			break
		}
		d *= 2
	}
	return p.clamp(d)
}

func (p backoffPolicy) max() time.Duration {
	if p.ceiling > 0 {
		return p.ceiling
	}
	return defaultBackoff.ceiling
}

func (p backoffPolicy) clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > p.max() {
		return p.max()
	}
	return d
}

type emptyContentError struct {
	Op           string
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf(
		"%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.Op, e.FinishReason, e.Refusal, e.Snippet,
	)
}

// requestContent runs the bounded attempt loop and returns the first usable
// reply content.
func (c *Client) requestContent(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		completion, body, err := c.postChat(ctx, payload)
		if err == nil {
			if content := firstReplyContent(completion); content != "" {
				return content, nil
			}
			err = emptyReplyError(op, completion, body)
		}

		if attempt >= c.attempts || !retriable(ctx, err) {
			return "", err
		}
		if sleepErr := c.pause(ctx, c.retryDelay(err, attempt)); sleepErr != nil {
			return "", sleepErr
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, c.attempts, lastErr)
}

func firstReplyContent(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if content := choice.replyContent(); content != "" {
			return content
		}
	}
	return ""
}

func emptyReplyError(op string, completion chatCompletionResponse, body []byte) error {
	if len(completion.Choices) == 0 {
		return fmt.Errorf("%s: empty choices", op)
	}
	e := &emptyContentError{Op: op, Snippet: summarizePayloadSnippet(string(body))}
	for _, choice := range completion.Choices {
		if e.FinishReason == "" {
			e.FinishReason = strings.TrimSpace(choice.FinishReason)
		}
		if e.Refusal == "" {
			e.Refusal = firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal)
		}
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// retriable reports whether another attempt is worth making: empty replies,
// throttling and server-side HTTP statuses, and network timeouts. Context
// errors never retry.
func retriable(ctx context.Context, err error) bool {
	if err == nil || ctx == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var emptyErr *emptyContentError
	if errors.As(err, &emptyErr) {
		return true
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// retryDelay prefers the server's Retry-After hint when present, otherwise
// falls back to exponential backoff.
func (c *Client) retryDelay(err error, attempt int) time.Duration {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return c.backoff.clamp(statusErr.RetryAfter)
	}
	return c.backoff.delay(attempt)
}

func (c *Client) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay >= 0 {
			return delay, true
		}
	}
	return 0, false
}
