package app

import (
	"github.com/yungbote/findable-backend/internal/jobs/sweep"
	"github.com/yungbote/findable-backend/internal/observability"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
	"github.com/yungbote/findable-backend/internal/services"
)

type Services struct {
	Metrics services.FindabilityMetricsService
	Sweeper *sweep.Sweeper
}

func wireServices(log *logger.Logger, cfg Config, r Repos, c Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	opts := services.MetricsServiceOptions{
		DefaultHours: cfg.Realtime.DefaultHours,
		MaxHours:     cfg.Realtime.MaxHours,
		Metrics:      metrics,
		Notifier:     services.NewNoopMetricsNotifier(),
	}
	if c.Redis != nil {
		opts.Notifier = services.NewMetricsNotifier(log, c.Redis)
		opts.Cache = c.Redis
		opts.CacheTTL = cfg.RealtimeCacheTTL()
	}

	metricsSvc := services.NewFindabilityMetricsService(
		log,
		r.Tx,
		r.Project,
		r.RunSession,
		r.RunResult,
		r.MetricRecord,
		opts,
	)
	sweeper := sweep.NewSweeper(log, metricsSvc, sweep.Options{
		BatchSize: cfg.Sweep.BatchSize,
		Metrics:   metrics,
	})

	return Services{
		Metrics: metricsSvc,
		Sweeper: sweeper,
	}
}
