package domain

import (
	"time"

	"github.com/google/uuid"
)

type ImportRunStatus string

const (
	ImportRunProcessing ImportRunStatus = "PROCESSING"
	ImportRunCompleted  ImportRunStatus = "COMPLETED"
	ImportRunFailed     ImportRunStatus = "FAILED"
)

// RawRow is one decoded file row keyed by header name, preserved verbatim so
// operators can inspect exactly what a rejected row contained.
type RawRow map[string]string

// ImportRun records one bulk upload attempt. It is created in PROCESSING and
// transitions exactly once to COMPLETED or FAILED; the batch never partially
// succeeds.
type ImportRun struct {
	ID             uuid.UUID       `db:"id"              json:"id"`
	FileName       string          `db:"file_name"       json:"file_name"`
	TotalRecords   int             `db:"total_records"   json:"total_records"`
	SuccessRecords int             `db:"success_records" json:"success_records"`
	ErrorRecords   int             `db:"error_records"   json:"error_records"`
	UploadedBy     uuid.UUID       `db:"uploaded_by"     json:"uploaded_by"`
	Status         ImportRunStatus `db:"status"          json:"status"`
	CreatedAt      time.Time       `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"      json:"updated_at"`
}

type ImportRowError struct {
	ID           uuid.UUID `db:"id"             json:"id"`
	BulkImportID uuid.UUID `db:"bulk_import_id" json:"bulk_import_id"`
	RowNumber    int       `db:"row_number"     json:"row_number"`
	ErrorMessage string    `db:"error_message"  json:"error_message"`
	RowData      RawRow    `db:"row_data"       json:"row_data"`
	CreatedAt    time.Time `db:"created_at"     json:"created_at"`
}
