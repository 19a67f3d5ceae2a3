package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/findable-backend/internal/data/aggregates"
	"github.com/yungbote/findable-backend/internal/data/repos"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

type Repos struct {
	Tx           aggregates.TxRunner
	Project      repos.ProjectRepo
	RunSession   repos.RunSessionRepo
	RunResult    repos.RunResultRepo
	MetricRecord repos.MetricRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tx:           aggregates.NewGormTxRunner(db),
		Project:      repos.NewProjectRepo(db, log),
		RunSession:   repos.NewRunSessionRepo(db, log),
		RunResult:    repos.NewRunResultRepo(db, log),
		MetricRecord: repos.NewMetricRecordRepo(db, log),
	}
}
