package llm

import (
	"context"
	"errors"
	"time"
)

// RetryConfig bounds how long a learner waits on one answer image.
type RetryConfig struct {
	// Attempts is the total number of tries, at least 1.
	Attempts int

	// Backoff is the wait before the second try; it doubles after that.
	Backoff time.Duration

	// Patience caps the time spent across all tries. A retry whose wait
	// would end past it is not made. Zero means only the context deadline
	// applies.
	Patience time.Duration
}

// DefaultRetry is tuned for a learner waiting at the answer prompt.
var DefaultRetry = RetryConfig{
	Attempts: 3,
	Backoff:  500 * time.Millisecond,
	Patience: 8 * time.Second,
}

type retrying struct {
	inner Provider
	cfg   RetryConfig
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry retries p on rate limits, outages and one malformed reply.
// Rejections, truncation and context errors are returned at once.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &retrying{inner: p, cfg: cfg, now: time.Now, sleep: sleepCtx}
}

func (r *retrying) Model() string { return r.inner.Model() }

func (r *retrying) Ask(ctx context.Context, req Request) (*Reply, error) {
	deadline := r.deadline(ctx)
	wait := r.cfg.Backoff
	badReplies := 0

	for attempt := 1; ; attempt++ {
		reply, err := r.inner.Ask(ctx, req)
		if err == nil {
			return reply, nil
		}
		if attempt >= r.cfg.Attempts {
			return nil, err
		}

		var e *Error
		if !errors.As(err, &e) {
			return nil, err
		}
		switch e.Kind {
		case KindRejected, KindTruncated:
			return nil, err
		case KindBadReply:
			if badReplies++; badReplies > 1 {
				return nil, err
			}
		}

		pause := wait
		if e.Kind == KindRateLimited && e.RetryAfter > 0 {
			pause = e.RetryAfter
		}
		if !deadline.IsZero() && r.now().Add(pause).After(deadline) {
			return nil, err
		}
		if serr := r.sleep(ctx, pause); serr != nil {
			return nil, serr
		}
		wait *= 2
	}
}

// deadline is the earlier of the context deadline and the patience budget.
func (r *retrying) deadline(ctx context.Context) time.Time {
	var d time.Time
	if r.cfg.Patience > 0 {
		d = r.now().Add(r.cfg.Patience)
	}
	if cd, ok := ctx.Deadline(); ok && (d.IsZero() || cd.Before(d)) {
		d = cd
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
