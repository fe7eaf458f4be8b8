package domain

import "errors"

var (
	ErrNetwork      = errors.New("network failure")
	ErrValidation   = errors.New("validation failure")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrorKind returns a stable label for err, used in metrics and problem bodies.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "unknown"
	}
}
