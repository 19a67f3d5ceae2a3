package findability

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/pkg/dbctx"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

const maxMetricListLimit = 500

type MetricRecordRepo interface {
	Create(dbc dbctx.Context, records []*types.MetricRecord) ([]*types.MetricRecord, error)
	ListByProject(dbc dbctx.Context, projectID uuid.UUID, kind types.MetricKind, limit int) ([]*types.MetricRecord, error)
}

type metricRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricRecordRepo(db *gorm.DB, baseLog *logger.Logger) MetricRecordRepo {
	return &metricRecordRepo{
		db:  db,
		log: baseLog.With("repo", "MetricRecordRepo"),
	}
}

func (r *metricRecordRepo) Create(dbc dbctx.Context, records []*types.MetricRecord) ([]*types.MetricRecord, error) {
	transaction := dbc.DB(r.db)
	if len(records) == 0 {
		return []*types.MetricRecord{}, nil
	}
	if err := transaction.Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByProject returns the newest records first. An empty kind matches every kind.
func (r *metricRecordRepo) ListByProject(dbc dbctx.Context, projectID uuid.UUID, kind types.MetricKind, limit int) ([]*types.MetricRecord, error) {
	transaction := dbc.DB(r.db)
	out := []*types.MetricRecord{}
	if projectID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > maxMetricListLimit {
		limit = maxMetricListLimit
	}
	q := transaction.Where("project_id = ?", projectID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Order("recorded_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
