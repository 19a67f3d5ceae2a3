package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/findable-backend/internal/http/handlers"
	httpMW "github.com/yungbote/findable-backend/internal/http/middleware"
	"github.com/yungbote/findable-backend/internal/observability"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	HealthHandler  *httpH.HealthHandler
	MetricsHandler *httpH.MetricsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Findability metrics
		if cfg.MetricsHandler != nil {
			api.POST("/sessions/:id/process", cfg.MetricsHandler.ProcessSession)
			api.POST("/metrics/sweep", cfg.MetricsHandler.Sweep)
			api.GET("/projects/:id/metrics", cfg.MetricsHandler.ListProjectMetrics)
			api.GET("/projects/:id/metrics/realtime", cfg.MetricsHandler.RealtimeMetrics)
		}
	}

	return r
}
