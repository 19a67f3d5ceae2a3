package findability

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/pkg/dbctx"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

type ProjectRepo interface {
	Create(dbc dbctx.Context, projects []*types.Project) ([]*types.Project, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{
		db:  db,
		log: baseLog.With("repo", "ProjectRepo"),
	}
}

func (r *projectRepo) Create(dbc dbctx.Context, projects []*types.Project) ([]*types.Project, error) {
	transaction := dbc.DB(r.db)
	if len(projects) == 0 {
		return []*types.Project{}, nil
	}
	if err := transaction.Create(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// GetByID returns nil without error when no project has the id.
func (r *projectRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Project, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Project
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
