package zipwhip

import (
	"errors"
	"fmt"
)

/* ErrorKind classifies a failed dispatch
 * Only TransientFailure is retryable; the other kinds surface immediately
 */
type ErrorKind int

const (
	TransientFailure ErrorKind = iota + 1
	RejectedByProvider
	AuthenticationFailed
)

// String returns the string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case TransientFailure:
		return "transient_failure"
	case RejectedByProvider:
		return "rejected_by_provider"
	case AuthenticationFailed:
		return "authentication_failed"
	default:
		return "unknown"
	}
}

// DispatchError is the classified failure of a single dispatch attempt.
type DispatchError struct {
	Kind ErrorKind
	Err  error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("dispatch %s", e.Kind)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// kindOf extracts the classification from an error chain.
func kindOf(err error) ErrorKind {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// IsTransient reports whether the error is a retryable dispatch failure.
func IsTransient(err error) bool {
	return kindOf(err) == TransientFailure
}

// IsRejected reports whether the provider permanently rejected the dispatch.
func IsRejected(err error) bool {
	return kindOf(err) == RejectedByProvider
}

// IsAuthenticationFailed reports whether the session credential was refused.
// This is fatal: every subsequent dispatch will fail the same way until an
// operator replaces the credential.
func IsAuthenticationFailed(err error) bool {
	return kindOf(err) == AuthenticationFailed
}
