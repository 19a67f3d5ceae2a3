package db

import (
	"fmt"

	types "github.com/yungbote/findable-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// Owned by the query runner; migrated here so local and test databases are complete.
		&types.Project{},
		&types.RunSession{},
		&types.RunResult{},

		// Owned by the metrics engine.
		&types.MetricRecord{},
	); err != nil {
		return err
	}
	return EnsureMetricsIndexes(db)
}

func EnsureMetricsIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_run_session_unprocessed",
			sql:  `CREATE INDEX IF NOT EXISTS idx_run_session_unprocessed ON run_session(metrics_processed, status, completed_at);`,
		},
		{
			name: "idx_run_session_project_completed",
			sql:  `CREATE INDEX IF NOT EXISTS idx_run_session_project_completed ON run_session(project_id, completed_at);`,
		},
		{
			name: "idx_metric_record_project_kind_ts",
			sql:  `CREATE INDEX IF NOT EXISTS idx_metric_record_project_kind_ts ON metric_record(project_id, kind, recorded_at);`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
