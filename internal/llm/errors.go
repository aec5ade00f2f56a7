package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Kind classifies a failed request by what the caller can do about it.
type Kind int

const (
	// KindUnavailable is a network failure or a 5xx from the provider.
	KindUnavailable Kind = iota

	// KindRateLimited is a 429; RetryAfter is set when the provider said.
	KindRateLimited

	// KindRejected is any other 4xx: a bad key, an unknown model or an
	// image the model will not accept. Retrying cannot help.
	KindRejected

	// KindBadReply means the model answered but the content was missing,
	// not JSON, or did not match the schema.
	KindBadReply

	// KindTruncated means the reply hit MaxTokens before it was complete.
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRateLimited:
		return "rate limited"
	case KindRejected:
		return "rejected"
	case KindBadReply:
		return "bad reply"
	case KindTruncated:
		return "truncated"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every Provider for failures the provider itself
// reported. Context cancellation and deadline errors are returned as is.
type Error struct {
	Kind     Kind
	Provider string

	// RetryAfter is the provider's requested wait for KindRateLimited.
	RetryAfter time.Duration

	// Content is the offending reply for KindBadReply and KindTruncated.
	Content json.RawMessage

	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err if it wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// statusError builds the Error for an HTTP status returned by provider.
func statusError(provider string, status int, err error) *Error {
	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Provider: provider, Err: err}
	case status >= 400 && status < 500:
		return &Error{Kind: KindRejected, Provider: provider, Err: err}
	default:
		return &Error{Kind: KindUnavailable, Provider: provider, Err: err}
	}
}

// transportError classifies a failure that never got an HTTP status.
// Cancellation and deadline errors from ctx pass through unwrapped.
func transportError(ctx context.Context, provider string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &Error{Kind: KindUnavailable, Provider: provider, Err: err}
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
