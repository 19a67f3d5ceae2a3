package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/findable-backend/internal/http"
	httpH "github.com/yungbote/findable-backend/internal/http/handlers"
	"github.com/yungbote/findable-backend/internal/observability"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Metrics *httpH.MetricsHandler
}

func wireHandlers(log *logger.Logger, theDB *gorm.DB, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(pingDB(theDB)),
		Metrics: httpH.NewMetricsHandler(s.Metrics, s.Sweeper),
	}
}

func wireServer(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.ServiceName
	}
	return http.NewServer(":"+cfg.Port, cfg.ShutdownTimeout, http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		HealthHandler:  h.Health,
		MetricsHandler: h.Metrics,
	})
}

func pingDB(theDB *gorm.DB) httpH.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := theDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
