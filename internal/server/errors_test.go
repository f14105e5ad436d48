package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/wins-exporter/internal/export"
	"github.com/jonathan/wins-exporter/internal/feed"
	"github.com/jonathan/wins-exporter/internal/types"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "cutoff", Message: "invalid format"}
	assert.Equal(t, "validation error: cutoff - invalid format", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{Resource: "run", ID: "abc"}
	assert.Equal(t, "run not found: abc", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	validatorErr := (&types.RowsRequest{Concurrency: -1}).Validate()
	require.Error(t, validatorErr)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "validation", err: &ErrValidation{Field: "body", Message: "bad"}, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "validator", err: validatorErr, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "unsupported format", err: &export.UnsupportedFormatError{Format: "pdf"}, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "upstream auth", err: &feed.AuthError{StatusCode: 401}, status: http.StatusBadGateway, code: "upstream_auth_failed"},
		{name: "wrapped upstream auth", err: fmt.Errorf("feed: %w", &feed.AuthError{StatusCode: 403}), status: http.StatusBadGateway, code: "upstream_auth_failed"},
		{name: "not found", err: &ErrNotFound{Resource: "run", ID: "x"}, status: http.StatusNotFound, code: "not_found"},
		{name: "storage disabled", err: &ErrStorageDisabled{}, status: http.StatusNotImplemented, code: "storage_disabled"},
		{name: "deadline", err: fmt.Errorf("page 3: %w", context.DeadlineExceeded), status: http.StatusGatewayTimeout, code: "upstream_timeout"},
		{name: "unknown", err: assert.AnError, status: http.StatusInternalServerError, code: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, ErrorCode(tt.err))
		})
	}
}
