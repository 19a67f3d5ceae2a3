package findability

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionStatusQueued    = "QUEUED"
	SessionStatusRunning   = "RUNNING"
	SessionStatusCompleted = "COMPLETED"
	SessionStatusFailed    = "FAILED"
)

// RunSession is one execution of a project's query set. The query runner owns every column except
// the metrics_processed pair, which only the metrics engine writes.
type RunSession struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID          uuid.UUID  `gorm:"type:uuid;column:project_id;not null;index" json:"project_id"`
	Status             string     `gorm:"column:status;not null;index" json:"status"`
	Priority           string     `gorm:"column:priority" json:"priority,omitempty"`
	ErrorMessage       string     `gorm:"column:error_message" json:"error_message,omitempty"`
	StartedAt          *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt        *time.Time `gorm:"column:completed_at;index" json:"completed_at,omitempty"`
	MetricsProcessed   bool       `gorm:"column:metrics_processed;not null;index" json:"metrics_processed"`
	MetricsProcessedAt *time.Time `gorm:"column:metrics_processed_at" json:"metrics_processed_at,omitempty"`
	CreatedAt          time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null" json:"updated_at"`
}

func (RunSession) TableName() string { return "run_session" }

func (s *RunSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *RunSession) IsCompleted() bool {
	return s != nil && strings.EqualFold(strings.TrimSpace(s.Status), SessionStatusCompleted)
}
