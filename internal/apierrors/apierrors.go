package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes surfaced by the client. Everything that crosses a package
// boundary is either one of these sentinels, an *HTTPError, or a wrap of one.
var (
	// ErrValidation is locally detected bad input. It never reaches the network.
	ErrValidation = errors.New("validation failed")

	// ErrNetwork is a transport-level failure (no connectivity, DNS, socket).
	ErrNetwork = errors.New("network failure")

	// ErrTimeout means a call exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrStorage is a secure-store read or write failure.
	ErrStorage = errors.New("secure storage failure")

	// ErrDecode means a response was missing required fields or was not
	// valid JSON.
	ErrDecode = errors.New("response decode failed")

	// ErrBusy means another mutating session operation is already in flight.
	ErrBusy = errors.New("operation already in progress")
)

// HTTPError is a backend response with a non-success status.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http status %d", e.Status)
	}
	return fmt.Sprintf("http status %d: %s", e.Status, e.Message)
}

// NewHTTPError creates an HTTPError for the given status and optional message.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// IsValidation reports whether err is a local input-validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsStorage reports whether err is a secure-store failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// IsDecode reports whether err is a response-decoding failure.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// HTTPStatus returns the backend status code carried by err, or 0 when err
// is not an HTTPError.
func HTTPStatus(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}

// IsAuthRejected reports whether the backend refused the caller's credentials.
// The session is unrecoverable at this point; callers must re-authenticate.
func IsAuthRejected(err error) bool {
	status := HTTPStatus(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
