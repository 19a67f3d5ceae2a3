package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

const EventSessionProcessed = "metrics.session_processed"

type MetricsEvent struct {
	ProjectID   uuid.UUID                    `json:"projectId"`
	SessionID   uuid.UUID                    `json:"sessionId"`
	Values      map[types.MetricKind]float64 `json:"values"`
	Results     int                          `json:"results"`
	ProcessedAt time.Time                    `json:"processedAt"`
}

// EventPublisher is the transport a notifier fans events out on (the Redis metrics bus in
// production).
type EventPublisher interface {
	Publish(ctx context.Context, event string, data any) error
}

type MetricsNotifier interface {
	SessionProcessed(ctx context.Context, evt MetricsEvent)
}

type metricsNotifier struct {
	log *logger.Logger
	pub EventPublisher
}

// NewMetricsNotifier publishes session events on pub. Publish failures are logged and dropped.
func NewMetricsNotifier(baseLog *logger.Logger, pub EventPublisher) MetricsNotifier {
	if pub == nil {
		return NewNoopMetricsNotifier()
	}
	return &metricsNotifier{
		log: baseLog.With("service", "MetricsNotifier"),
		pub: pub,
	}
}

func (n *metricsNotifier) SessionProcessed(ctx context.Context, evt MetricsEvent) {
	if n == nil || n.pub == nil || evt.SessionID == uuid.Nil {
		return
	}
	if err := n.pub.Publish(ctx, EventSessionProcessed, evt); err != nil {
		n.log.Warn("publish metrics event failed",
			"event", EventSessionProcessed,
			"session_id", evt.SessionID,
			"error", err,
		)
	}
}

type noopMetricsNotifier struct{}

func NewNoopMetricsNotifier() MetricsNotifier { return noopMetricsNotifier{} }

func (noopMetricsNotifier) SessionProcessed(context.Context, MetricsEvent) {}
