package driven

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// FetchRequest describes a single bounded GET.
type FetchRequest struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Fetcher retrieves raw feed bodies for the parsers.
// This is a driven port implemented by the HTTP adapter and by test doubles.
type Fetcher interface {
	// Fetch performs one GET, following redirects, and returns the body.
	// Failures are reported as *FetchError. Implementations must not retry.
	Fetch(ctx context.Context, req FetchRequest) ([]byte, error)
}

// FetchErrorKind classifies why a fetch failed.
type FetchErrorKind int

// Fetch error kinds.
const (
	FetchNetwork  FetchErrorKind = iota // FetchNetwork covers DNS, connect, TLS, timeout and cancellation
	FetchStatus                         // FetchStatus means the server answered with a non-2xx status
	FetchEmpty                          // FetchEmpty means the body was blank after trimming whitespace
	FetchTooLarge                       // FetchTooLarge means the body exceeded the size cap
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetwork:
		return "network"
	case FetchStatus:
		return "status"
	case FetchEmpty:
		return "empty"
	case FetchTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// FetchError is returned by Fetcher implementations.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchStatus:
		return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
	case FetchEmpty:
		return "response body is empty"
	case FetchTooLarge:
		return "response body exceeds size limit"
	default:
		if e.Err != nil {
			return fmt.Sprintf("network error: %v", e.Err)
		}
		return "network error"
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is a FetchError of the given kind.
func IsFetchError(err error, kind FetchErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}
