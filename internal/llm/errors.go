package llm

import (
	"errors"
	"fmt"

	"github.com/pavelanni/assessor/internal/encoder"
)

var (
	// ErrMissingCredential is matched by every *MissingCredentialError.
	ErrMissingCredential = errors.New("missing API credential")
	// ErrBackend is matched by every *BackendError.
	ErrBackend = errors.New("backend call failed")
	// ErrResponseFormat is matched by every *ResponseFormatError.
	ErrResponseFormat = errors.New("malformed backend response")
)

// MissingCredentialError is returned when no API key is configured.
type MissingCredentialError struct {
	Backend string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s: no API key configured", e.Backend)
}

func (e *MissingCredentialError) Is(target error) bool { return target == ErrMissingCredential }

// BackendError wraps a transport, authentication or quota failure reported
// by the model endpoint.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// ResponseFormatError is returned when the call succeeded but produced no
// text, text that is not JSON, or JSON of the wrong shape.
type ResponseFormatError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ResponseFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("response format: %s: %v", e.Reason, e.Err)
	}
	return "response format: " + e.Reason
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }

func (e *ResponseFormatError) Is(target error) bool { return target == ErrResponseFormat }

// Error kinds reported by Kind.
const (
	KindMissingCredential = "missing_credential"
	KindEncoding          = "encoding"
	KindBackend           = "backend"
	KindResponseFormat    = "response_format"
	KindUnknown           = "unknown"
)

// Kind classifies err into one of the analysis error kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, encoder.ErrEncoding):
		return KindEncoding
	case errors.Is(err, ErrResponseFormat):
		return KindResponseFormat
	case errors.Is(err, ErrBackend):
		return KindBackend
	default:
		return KindUnknown
	}
}
