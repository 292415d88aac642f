package palettecache

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/colour"
	httputil "github.com/jmylchreest/hue/internal/util/http"
)

// RetryPolicy controls how failed extractions are retried.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// BaseDelay is the wait before the first retry. It doubles on every retry.
	BaseDelay time.Duration

	// MaxDelay caps the wait between attempts.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured:
// two retries, waiting 1s then 2s, never more than 30s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Delay returns the wait before retry number attempt (zero based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for range attempt {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 {
		d = min(d, p.MaxDelay)
	}
	return d
}

// Retryable reports whether a failed extraction is worth another attempt.
// HTTP failures are retried only for statuses that may clear (429, 5xx) and
// transport errors are always retried. Missing images, bytes that do not
// decode and images without usable pixels fail the same way every time.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, artwork.ErrNoImage),
		errors.Is(err, colour.ErrInsufficientData),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}

	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return !errors.Is(err, colour.ErrDecode)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
