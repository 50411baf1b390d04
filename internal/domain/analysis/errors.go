package analysis

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable indicates no response was received from the analysis
// backend (connection error or timeout).
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrBackendRejected indicates the backend responded but reported failure
// (non-2xx status or success=false in the body).
var ErrBackendRejected = errors.New("backend rejected request")

// ErrMalformedResponse indicates the response was missing required fields
// even after defaulting. Shown to the user as a rejection.
var ErrMalformedResponse = errors.New("malformed backend response")

// BackendError attaches backend-provided detail to one of the taxonomy
// sentinels above. Use errors.Is against the sentinels to branch on kind.
type BackendError struct {
	Kind   error
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Detail)
}

func (e *BackendError) Unwrap() error { return e.Kind }

// UserMessage returns the text shown in the error banner.
func (e *BackendError) UserMessage() string {
	if errors.Is(e.Kind, ErrBackendUnavailable) {
		return "Server not responding."
	}
	if e.Detail != "" {
		return e.Detail
	}
	return "Analysis failed. Please try again."
}

// ValidationError rejects user input before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// MessageFor maps any adapter or validation error to banner text.
func MessageFor(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		return be.UserMessage()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return "Server not responding."
	}
	return "Something went wrong. Please try again."
}
