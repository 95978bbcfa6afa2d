package research

import (
	"errors"
	"fmt"
	"time"
)

// ErrSearchTimeout is matched by every search deadline failure
var ErrSearchTimeout = errors.New("search timed out")

// TimeoutError reports that an external call exceeded its deadline
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

// Is lets errors.Is(err, ErrSearchTimeout) match
func (e *TimeoutError) Is(target error) bool {
	return target == ErrSearchTimeout
}

// ProviderError wraps any non-timeout failure of an external provider
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed (status %d): %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// User-facing messages for failed research runs
const (
	MsgTimeout = "The search took too long to respond. Try again in a moment or narrow the topic."
	MsgGeneric = "The research could not be completed. Please try again."
)

// UserMessage maps an error to the message shown to end users
func UserMessage(err error) string {
	if errors.Is(err, ErrSearchTimeout) {
		return MsgTimeout
	}
	return MsgGeneric
}
