package findability

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunResult is one AI model response to one query. Rows are written by the query runner and
// never mutated here.
type RunResult struct {
	ID                uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID         uuid.UUID                   `gorm:"type:uuid;column:session_id;not null;index" json:"session_id"`
	QueryText         string                      `gorm:"column:query_text;type:text" json:"query_text"`
	ResponseText      string                      `gorm:"column:response_text;type:text" json:"response_text"`
	Citations         datatypes.JSONSlice[string] `gorm:"column:citations" json:"citations"`
	ExtractedSnippets datatypes.JSONSlice[string] `gorm:"column:extracted_snippets" json:"extracted_snippets"`
	Mentions          datatypes.JSONSlice[string] `gorm:"column:mentions" json:"mentions"`
	ExecutionTimeMs   int                         `gorm:"column:execution_time_ms;not null;default:0" json:"execution_time_ms"`
	Surface           string                      `gorm:"column:surface" json:"surface"`
	Model             string                      `gorm:"column:model;index" json:"model"`
	CreatedAt         time.Time                   `gorm:"not null;index" json:"created_at"`
}

func (RunResult) TableName() string { return "run_result" }

func (r *RunResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
