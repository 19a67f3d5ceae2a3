package findability

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/pkg/dbctx"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

type RunResultRepo interface {
	Create(dbc dbctx.Context, results []*types.RunResult) ([]*types.RunResult, error)
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.RunResult, error)
	ListCompletedForProjectBetween(dbc dbctx.Context, projectID uuid.UUID, from, to time.Time) ([]*types.RunResult, error)
}

type runResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunResultRepo(db *gorm.DB, baseLog *logger.Logger) RunResultRepo {
	return &runResultRepo{
		db:  db,
		log: baseLog.With("repo", "RunResultRepo"),
	}
}

func (r *runResultRepo) Create(dbc dbctx.Context, results []*types.RunResult) ([]*types.RunResult, error) {
	transaction := dbc.DB(r.db)
	if len(results) == 0 {
		return []*types.RunResult{}, nil
	}
	if err := transaction.Create(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *runResultRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.RunResult, error) {
	transaction := dbc.DB(r.db)
	out := []*types.RunResult{}
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := transaction.
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListCompletedForProjectBetween returns results of the project's completed sessions whose
// completion time falls in [from, to].
func (r *runResultRepo) ListCompletedForProjectBetween(dbc dbctx.Context, projectID uuid.UUID, from, to time.Time) ([]*types.RunResult, error) {
	transaction := dbc.DB(r.db)
	out := []*types.RunResult{}
	if projectID == uuid.Nil || to.Before(from) {
		return out, nil
	}
	if err := transaction.
		Model(&types.RunResult{}).
		Select("run_result.*").
		Joins("JOIN run_session ON run_session.id = run_result.session_id").
		Where("run_session.project_id = ?", projectID).
		Where("UPPER(run_session.status) = ?", types.SessionStatusCompleted).
		Where("run_session.completed_at >= ? AND run_session.completed_at <= ?", from, to).
		Order("run_result.created_at ASC").
		Order("run_result.id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
