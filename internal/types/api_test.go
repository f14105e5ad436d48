package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowsRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RowsRequest
		wantErr bool
	}{
		{"empty", RowsRequest{}, false},
		{"full", RowsRequest{Cutoff: "2026-01-26T00:00:00Z", Concurrency: 6, RetentionDays: 7, Format: "csv"}, false},
		{"offset cutoff", RowsRequest{Cutoff: "2026-01-26T02:00:00+02:00"}, false},
		{"bad cutoff", RowsRequest{Cutoff: "26/01/2026"}, true},
		{"negative retention", RowsRequest{RetentionDays: -1}, true},
		{"negative concurrency", RowsRequest{Concurrency: -1}, true},
		{"unknown format", RowsRequest{Format: "xlsx"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRowsRequest_CutoffTime(t *testing.T) {
	zero, err := (&RowsRequest{}).CutoffTime()
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	got, err := (&RowsRequest{Cutoff: "2026-01-26T02:00:00+02:00"}).CutoffTime()
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC)))
}
