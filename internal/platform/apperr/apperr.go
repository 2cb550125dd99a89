// Package apperr defines the error kinds shared by the domain services and
// their translation to HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// Error carries a user-facing message and one or more kinds.
type Error struct {
	msg   string
	kinds []error
}

func (e *Error) Error() string   { return e.msg }
func (e *Error) Unwrap() []error { return e.kinds }

func newError(kinds []error, format string, args ...any) error {
	return &Error{msg: fmt.Sprintf(format, args...), kinds: kinds}
}

func NotFound(format string, args ...any) error {
	return newError([]error{ErrNotFound}, format, args...)
}

func Validation(format string, args ...any) error {
	return newError([]error{ErrValidation}, format, args...)
}

func Conflict(format string, args ...any) error {
	return newError([]error{ErrConflict}, format, args...)
}

// InvalidConflict is an integrity rule broken by the request itself, such as
// a second procedure on one appointment. It matches both ErrConflict and
// ErrValidation.
func InvalidConflict(format string, args ...any) error {
	return newError([]error{ErrConflict, ErrValidation}, format, args...)
}

// ToHTTP maps err onto an echo.HTTPError. Errors of unknown kind become a
// generic 500 so internal details are not leaked.
func ToHTTP(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
