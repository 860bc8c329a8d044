package utils

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/go-playground/validator/v10"

	"go-buildmart/logger"
	"go-buildmart/repository"
)

// ShowStack adds stack traces to 500 responses. Disabled in production.
var ShowStack = true

// AppError is an error with an HTTP status and a client-facing message.
type AppError struct {
	Status  int
	Message string
	Errors  []string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(status int, format string, args ...interface{}) *AppError {
	return &AppError{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...interface{}) *AppError {
	return newError(http.StatusBadRequest, format, args...)
}

func Unauthorized(format string, args ...interface{}) *AppError {
	return newError(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *AppError {
	return newError(http.StatusForbidden, format, args...)
}

// NotFound builds "<what> not found".
func NotFound(what string) *AppError {
	return newError(http.StatusNotFound, "%s not found", what)
}

func Conflict(format string, args ...interface{}) *AppError {
	return newError(http.StatusConflict, format, args...)
}

// Validation is a 400 carrying one message per failed rule.
func Validation(msgs []string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: "Validation failed", Errors: msgs}
}

// Classify maps any error onto an AppError.
func Classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return Validation(flatten(verrs))
	}
	var dup *repository.DuplicateKeyError
	if errors.As(err, &dup) {
		return &AppError{Status: http.StatusBadRequest, Message: fmt.Sprintf("%s already exists", dup.Field), Err: err}
	}
	var stock *repository.StockError
	if errors.As(err, &stock) {
		return &AppError{Status: http.StatusBadRequest, Message: fmt.Sprintf("Insufficient stock for %s", stock.Name), Err: err}
	}
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		return &AppError{Status: http.StatusBadRequest, Message: "Invalid ID", Err: err}
	case errors.Is(err, repository.ErrNotFound):
		return &AppError{Status: http.StatusNotFound, Message: "Resource not found", Err: err}
	case errors.Is(err, repository.ErrStaleStatus):
		return &AppError{Status: http.StatusConflict, Message: "Order was updated by someone else, reload and retry", Err: err}
	case errors.Is(err, repository.ErrUnavailable):
		return &AppError{Status: http.StatusServiceUnavailable, Message: "Service temporarily unavailable", Err: err}
	}
	return &AppError{Status: http.StatusInternalServerError, Message: "Internal Server Error", Err: err}
}

// WriteError logs err and writes the matching envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := Classify(err)
	body := Envelope{Success: false, Message: appErr.Message, Errors: appErr.Errors}

	log := logger.FromContext(r.Context())
	if appErr.Status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err, "path", r.URL.Path)
		if ShowStack {
			body.Stack = fmt.Sprintf("%v\n%s", err, debug.Stack())
		}
	} else {
		log.Debug("request rejected", "status", appErr.Status, "error", err)
	}
	JSON(w, appErr.Status, body)
}
