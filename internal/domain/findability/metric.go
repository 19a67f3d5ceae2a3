package findability

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type MetricKind string

const (
	MetricPresence      MetricKind = "presence"
	MetricPickRate      MetricKind = "pick_rate"
	MetricSnippetHealth MetricKind = "snippet_health"
	MetricCitations     MetricKind = "citations"
)

// MetricKinds lists every persisted kind in the order they are computed and stored.
var MetricKinds = []MetricKind{MetricPresence, MetricPickRate, MetricSnippetHealth, MetricCitations}

func (k MetricKind) Valid() bool {
	for _, known := range MetricKinds {
		if k == known {
			return true
		}
	}
	return false
}

// MetricMetadata records the raw counts behind a value. Each kind fills its own subset:
//
//	presence:       Total, Mentions
//	pick_rate:      Total, Recommendations
//	snippet_health: Total, Healthy
//	citations:      Total, ProjectMentions, Cited
//
// It is kept for auditing and is never read back into scoring.
type MetricMetadata struct {
	Total           int `json:"total"`
	Mentions        int `json:"mentions"`
	Recommendations int `json:"recommendations"`
	Healthy         int `json:"healthy"`
	ProjectMentions int `json:"projectMentions"`
	Cited           int `json:"cited"`
}

// MetricRecord is one scored data point. Records are append-only.
type MetricRecord struct {
	ID        uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID                         `gorm:"type:uuid;column:project_id;not null;index" json:"project_id"`
	SessionID *uuid.UUID                        `gorm:"type:uuid;column:session_id;index" json:"session_id,omitempty"`
	Kind      MetricKind                        `gorm:"column:kind;not null;index" json:"kind"`
	Value     float64                           `gorm:"column:value;not null" json:"value"`
	Metadata  datatypes.JSONType[MetricMetadata] `gorm:"column:metadata" json:"metadata"`
	Timestamp time.Time                         `gorm:"column:recorded_at;not null;index" json:"timestamp"`
	CreatedAt time.Time                         `gorm:"not null" json:"created_at"`
}

func (MetricRecord) TableName() string { return "metric_record" }

func (m *MetricRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// CompetitorStat is derived per batch and never persisted.
type CompetitorStat struct {
	Competitor         string  `json:"competitor"`
	Mentions           int     `json:"mentions"`
	Recommendations    int     `json:"recommendations"`
	MentionRate        float64 `json:"mention_rate"`
	RecommendationRate float64 `json:"recommendation_rate"`
}
