package findability

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/pkg/dbctx"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

type RunSessionRepo interface {
	Create(dbc dbctx.Context, sessions []*types.RunSession) ([]*types.RunSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RunSession, error)
	ListUnprocessedCompleted(dbc dbctx.Context, limit int) ([]*types.RunSession, error)
	MarkMetricsProcessed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error)
}

type runSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunSessionRepo(db *gorm.DB, baseLog *logger.Logger) RunSessionRepo {
	return &runSessionRepo{
		db:  db,
		log: baseLog.With("repo", "RunSessionRepo"),
	}
}

func (r *runSessionRepo) Create(dbc dbctx.Context, sessions []*types.RunSession) ([]*types.RunSession, error) {
	transaction := dbc.DB(r.db)
	if len(sessions) == 0 {
		return []*types.RunSession{}, nil
	}
	if err := transaction.Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByID returns nil without error when no session has the id.
func (r *runSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.RunSession, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.RunSession
	if err := transaction.
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// ListUnprocessedCompleted returns completed sessions whose metrics have not been written yet,
// oldest completion first.
func (r *runSessionRepo) ListUnprocessedCompleted(dbc dbctx.Context, limit int) ([]*types.RunSession, error) {
	transaction := dbc.DB(r.db)
	if limit <= 0 {
		return []*types.RunSession{}, nil
	}
	var out []*types.RunSession
	if err := transaction.
		Where("metrics_processed = ? AND UPPER(status) = ?", false, types.SessionStatusCompleted).
		Order("completed_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkMetricsProcessed flips the processed flag only if it is still unset and reports whether
// this call flipped it.
func (r *runSessionRepo) MarkMetricsProcessed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return false, nil
	}
	res := transaction.
		Model(&types.RunSession{}).
		Where("id = ? AND metrics_processed = ?", id, false).
		Updates(map[string]interface{}{
			"metrics_processed":    true,
			"metrics_processed_at": at,
			"updated_at":           at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
