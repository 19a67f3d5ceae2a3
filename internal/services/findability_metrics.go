package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/findable-backend/internal/data/aggregates"
	"github.com/yungbote/findable-backend/internal/data/repos"
	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/modules/scoring"
	"github.com/yungbote/findable-backend/internal/observability"
	"github.com/yungbote/findable-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/findable-backend/internal/pkg/errors"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
	"github.com/yungbote/findable-backend/internal/platform/ctxutil"
)

const (
	DefaultRealtimeHours = 24
	MaxRealtimeHours     = 168
)

const (
	outcomeProcessed        = "processed"
	outcomeAlreadyProcessed = "already_processed"
	outcomeNotFound         = "not_found"
	outcomeFailed           = "failed"
	outcomeRetryable        = "failed_retryable"
)

type FindabilityMetricsService interface {
	// ProcessCompletedSession scores one completed session and persists its four metric records
	// together with the processed flag. Sessions already flagged are a successful no-op.
	ProcessCompletedSession(ctx context.Context, sessionID uuid.UUID) error
	ListUnprocessedSessionIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	// CalculateRealtimeMetrics scores the trailing window without writing anything.
	CalculateRealtimeMetrics(ctx context.Context, projectID uuid.UUID, hours int) (*RealtimeMetrics, error)
	ListProjectMetrics(ctx context.Context, projectID uuid.UUID, kind types.MetricKind, limit int) ([]*types.MetricRecord, error)
}

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Hours int       `json:"hours"`
}

type RealtimeMetrics struct {
	ProjectID         uuid.UUID              `json:"projectId"`
	Metrics           []types.MetricRecord   `json:"metrics"`
	CompetitorMetrics []types.CompetitorStat `json:"competitorMetrics"`
	TimeRange         TimeRange              `json:"timeRange"`
	TotalResults      int                    `json:"totalResults"`
}

type MetricsServiceOptions struct {
	DefaultHours int
	MaxHours     int
	CacheTTL     time.Duration
	Clock        clock.Clock
	Notifier     MetricsNotifier
	Cache        RealtimeCache
	Metrics      *observability.Metrics
	Tracer       trace.Tracer
}

type findabilityMetricsService struct {
	log      *logger.Logger
	tx       aggregates.TxRunner
	projects repos.ProjectRepo
	sessions repos.RunSessionRepo
	results  repos.RunResultRepo
	records  repos.MetricRecordRepo

	defaultHours int
	maxHours     int
	cacheTTL     time.Duration
	clk          clock.Clock
	notifier     MetricsNotifier
	cache        RealtimeCache
	metrics      *observability.Metrics
	tracer       trace.Tracer
}

func NewFindabilityMetricsService(
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	projects repos.ProjectRepo,
	sessions repos.RunSessionRepo,
	results repos.RunResultRepo,
	records repos.MetricRecordRepo,
	opts MetricsServiceOptions,
) FindabilityMetricsService {
	s := &findabilityMetricsService{
		log:          baseLog.With("service", "FindabilityMetricsService"),
		tx:           tx,
		projects:     projects,
		sessions:     sessions,
		results:      results,
		records:      records,
		defaultHours: opts.DefaultHours,
		maxHours:     opts.MaxHours,
		cacheTTL:     opts.CacheTTL,
		clk:          opts.Clock,
		notifier:     opts.Notifier,
		cache:        opts.Cache,
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
	}
	if s.defaultHours <= 0 {
		s.defaultHours = DefaultRealtimeHours
	}
	if s.maxHours <= 0 {
		s.maxHours = MaxRealtimeHours
	}
	if s.defaultHours > s.maxHours {
		s.defaultHours = s.maxHours
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	if s.notifier == nil {
		s.notifier = NewNoopMetricsNotifier()
	}
	if s.tracer == nil {
		s.tracer = observability.Tracer()
	}
	return s
}

func (s *findabilityMetricsService) ProcessCompletedSession(ctx context.Context, sessionID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "metrics.process_session",
		trace.WithAttributes(attribute.String("session.id", sessionID.String())))
	started := s.clk.Now()
	outcome := outcomeProcessed
	written := 0
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("metrics.outcome", outcome))
		span.End()
		s.metrics.ObserveSession(outcome, written, s.clk.Now().Sub(started))
	}()

	if sessionID == uuid.Nil {
		outcome = outcomeNotFound
		return fmt.Errorf("missing session_id: %w", apperr.ErrInvalidArgument)
	}

	log := s.log.With(append(ctxutil.LogFields(ctx), "session_id", sessionID)...)
	dbc := dbctx.Context{Ctx: ctx}
	session, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		outcome = failureOutcome(err)
		return aggregates.MapError("load session", err)
	}
	if session == nil || !session.IsCompleted() {
		outcome = outcomeNotFound
		return fmt.Errorf("session %s not found or not completed: %w", sessionID, apperr.ErrNotFound)
	}
	if session.MetricsProcessed {
		outcome = outcomeAlreadyProcessed
		log.Debug("session already processed")
		return nil
	}

	project, err := s.projects.GetByID(dbc, session.ProjectID)
	if err != nil {
		outcome = failureOutcome(err)
		return aggregates.MapError("load project", err)
	}
	if project == nil {
		outcome = outcomeNotFound
		return fmt.Errorf("project %s for session %s: %w", session.ProjectID, sessionID, apperr.ErrNotFound)
	}
	batch, err := s.results.ListBySession(dbc, sessionID)
	if err != nil {
		outcome = failureOutcome(err)
		return aggregates.MapError("load results", err)
	}

	now := s.clk.Now().UTC()
	computed := scoring.CalculateAll(batch, project)
	rows := make([]*types.MetricRecord, 0, len(computed))
	for i := range computed {
		rec := computed[i]
		rec.Timestamp = now
		sid := sessionID
		rec.SessionID = &sid
		rows = append(rows, &rec)
	}

	err = s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if _, err := s.records.Create(dbc, rows); err != nil {
			return err
		}
		flipped, err := s.sessions.MarkMetricsProcessed(dbc, sessionID, now)
		if err != nil {
			return err
		}
		if !flipped {
			return aggregates.ErrRollback
		}
		return nil
	})
	if errors.Is(err, aggregates.ErrRollback) {
		outcome = outcomeAlreadyProcessed
		log.Info("session flagged concurrently; metrics discarded")
		return nil
	}
	if err != nil {
		outcome = failureOutcome(err)
		return aggregates.MapError("persist session metrics", err)
	}

	written = len(rows)
	log.Info("session metrics processed",
		"project_id", project.ID,
		"results", len(batch),
	)
	s.notifier.SessionProcessed(ctx, MetricsEvent{
		ProjectID:   project.ID,
		SessionID:   sessionID,
		Values:      metricValues(rows),
		Results:     len(batch),
		ProcessedAt: now,
	})
	return nil
}

func (s *findabilityMetricsService) ListUnprocessedSessionIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	sessions, err := s.sessions.ListUnprocessedCompleted(dbctx.Context{Ctx: ctx}, limit)
	if err != nil {
		return nil, aggregates.MapError("list unprocessed sessions", err)
	}
	out := make([]uuid.UUID, 0, len(sessions))
	for _, sess := range sessions {
		if sess != nil {
			out = append(out, sess.ID)
		}
	}
	return out, nil
}

func (s *findabilityMetricsService) CalculateRealtimeMetrics(ctx context.Context, projectID uuid.UUID, hours int) (out *RealtimeMetrics, err error) {
	hours = s.clampHours(hours)
	ctx, span := s.tracer.Start(ctx, "metrics.realtime",
		trace.WithAttributes(
			attribute.String("project.id", projectID.String()),
			attribute.Int("window.hours", hours),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if projectID == uuid.Nil {
		return nil, fmt.Errorf("missing project_id: %w", apperr.ErrInvalidArgument)
	}

	key := realtimeCacheKey(projectID, hours)
	if s.cache != nil && s.cacheTTL > 0 {
		var cached RealtimeMetrics
		hit, cerr := s.cache.Get(ctx, key, &cached)
		if cerr != nil {
			s.log.Warn("realtime cache read failed", "project_id", projectID, "error", cerr)
		} else if hit {
			s.metrics.ObserveRealtime("hit", cached.TotalResults)
			return &cached, nil
		}
	}

	dbc := dbctx.Context{Ctx: ctx}
	project, err := s.projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, aggregates.MapError("load project", err)
	}
	if project == nil || !project.IsActive {
		return nil, fmt.Errorf("project %s not found or inactive: %w", projectID, apperr.ErrNotFound)
	}

	end := s.clk.Now().UTC()
	start := end.Add(-time.Duration(hours) * time.Hour)
	batch, err := s.results.ListCompletedForProjectBetween(dbc, projectID, start, end)
	if err != nil {
		return nil, aggregates.MapError("load window results", err)
	}

	computed := scoring.CalculateAll(batch, project)
	for i := range computed {
		computed[i].Timestamp = end
	}
	out = &RealtimeMetrics{
		ProjectID:         projectID,
		Metrics:           computed,
		CompetitorMetrics: scoring.CompetitorStats(batch, project),
		TimeRange:         TimeRange{Start: start, End: end, Hours: hours},
		TotalResults:      len(batch),
	}

	cacheLabel := "none"
	if s.cache != nil && s.cacheTTL > 0 {
		cacheLabel = "miss"
		if cerr := s.cache.Set(ctx, key, out, s.cacheTTL); cerr != nil {
			s.log.Warn("realtime cache write failed", "project_id", projectID, "error", cerr)
		}
	}
	s.metrics.ObserveRealtime(cacheLabel, len(batch))
	return out, nil
}

func (s *findabilityMetricsService) ListProjectMetrics(ctx context.Context, projectID uuid.UUID, kind types.MetricKind, limit int) ([]*types.MetricRecord, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("missing project_id: %w", apperr.ErrInvalidArgument)
	}
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("unknown metric kind %q: %w", kind, apperr.ErrInvalidArgument)
	}
	dbc := dbctx.Context{Ctx: ctx}
	project, err := s.projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, aggregates.MapError("load project", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, apperr.ErrNotFound)
	}
	out, err := s.records.ListByProject(dbc, projectID, kind, limit)
	if err != nil {
		return nil, aggregates.MapError("list metrics", err)
	}
	return out, nil
}

func (s *findabilityMetricsService) clampHours(hours int) int {
	if hours <= 0 {
		return s.defaultHours
	}
	if hours > s.maxHours {
		return s.maxHours
	}
	return hours
}

func failureOutcome(err error) string {
	if aggregates.IsRetryable(err) {
		return outcomeRetryable
	}
	return outcomeFailed
}

func metricValues(rows []*types.MetricRecord) map[types.MetricKind]float64 {
	out := make(map[types.MetricKind]float64, len(rows))
	for _, r := range rows {
		out[r.Kind] = r.Value
	}
	return out
}

func realtimeCacheKey(projectID uuid.UUID, hours int) string {
	return fmt.Sprintf("findable:realtime:%s:%d", projectID, hours)
}
