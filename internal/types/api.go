package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RowsRequest is the body accepted by the rows and export endpoints.
type RowsRequest struct {
	Cutoff        string `json:"cutoff,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Concurrency   int    `json:"concurrency,omitempty" validate:"gte=0,lte=1000"`
	RetentionDays int    `json:"retention_days,omitempty" validate:"gte=0,lte=3650"`
	Format        string `json:"format,omitempty" validate:"omitempty,oneof=csv json"`
}

// Validate validates the RowsRequest using the validator.
func (r *RowsRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CutoffTime returns the parsed cutoff, or the zero time when none was given.
func (r *RowsRequest) CutoffTime() (time.Time, error) {
	if r.Cutoff == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, r.Cutoff)
}

// RowsResponse is returned by the rows endpoint.
type RowsResponse struct {
	RunID string      `json:"run_id"`
	Rows  []OutputRow `json:"rows"`
	Count int         `json:"count"`
}

// Snapshot is one export run as recorded by a persistence sink.
type Snapshot struct {
	RunID         uuid.UUID   `json:"run_id"`
	Cutoff        time.Time   `json:"cutoff"`
	RetentionDays int         `json:"retention_days"`
	Destination   string      `json:"destination"`
	Format        string      `json:"format"`
	CreatedAt     time.Time   `json:"created_at"`
	Rows          []OutputRow `json:"rows"`
}
