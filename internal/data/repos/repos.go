package repos

import (
	"github.com/yungbote/findable-backend/internal/data/repos/findability"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type ProjectRepo = findability.ProjectRepo
type RunSessionRepo = findability.RunSessionRepo
type RunResultRepo = findability.RunResultRepo
type MetricRecordRepo = findability.MetricRecordRepo

func NewProjectRepo(db *gorm.DB, log *logger.Logger) ProjectRepo {
	return findability.NewProjectRepo(db, log)
}

func NewRunSessionRepo(db *gorm.DB, log *logger.Logger) RunSessionRepo {
	return findability.NewRunSessionRepo(db, log)
}

func NewRunResultRepo(db *gorm.DB, log *logger.Logger) RunResultRepo {
	return findability.NewRunResultRepo(db, log)
}

func NewMetricRecordRepo(db *gorm.DB, log *logger.Logger) MetricRecordRepo {
	return findability.NewMetricRecordRepo(db, log)
}
