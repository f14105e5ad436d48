package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/wins-exporter/internal/export"
	"github.com/jonathan/wins-exporter/internal/feed"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a stored run does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrStorageDisabled indicates a snapshot endpoint was called without a database.
type ErrStorageDisabled struct{}

func (e *ErrStorageDisabled) Error() string {
	return "snapshot storage is not configured"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

// ErrorCode returns the stable machine-readable code reported alongside an error.
func ErrorCode(err error) string {
	_, code := classify(err)
	return code
}

func classify(err error) (int, string) {
	var (
		validationErr *ErrValidation
		validatorErrs validator.ValidationErrors
		formatErr     *export.UnsupportedFormatError
		authErr       *feed.AuthError
		notFoundErr   *ErrNotFound
		storageErr    *ErrStorageDisabled
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &validatorErrs), errors.As(err, &formatErr):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "upstream_auth_failed"
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &storageErr):
		return http.StatusNotImplemented, "storage_disabled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
