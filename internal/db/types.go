package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents an export run record
type Run struct {
	ID            uuid.UUID `json:"id"`
	Cutoff        time.Time `json:"cutoff"`
	RetentionDays int       `json:"retention_days"`
	Destination   string    `json:"destination"`
	Format        string    `json:"format"`
	RowCount      int       `json:"row_count"`
	CreatedAt     time.Time `json:"created_at"`
}
