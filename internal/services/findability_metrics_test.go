package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/findable-backend/internal/data/aggregates"
	"github.com/yungbote/findable-backend/internal/data/repos"
	"github.com/yungbote/findable-backend/internal/data/repos/testutil"
	types "github.com/yungbote/findable-backend/internal/domain"
	"github.com/yungbote/findable-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/findable-backend/internal/pkg/errors"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []MetricsEvent
}

func (n *recordingNotifier) SessionProcessed(_ context.Context, evt MetricsEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (c *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = raw
	c.sets++
	return nil
}

type fixture struct {
	db       *gorm.DB
	clk      *clock.Mock
	notifier *recordingNotifier
	records  repos.MetricRecordRepo
	sessions repos.RunSessionRepo
	svc      FindabilityMetricsService
}

func newFixture(t *testing.T, cache RealtimeCache) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := clock.NewMock()
	clk.Add(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC).Sub(clk.Now()))

	f := &fixture{
		db:       db,
		clk:      clk,
		notifier: &recordingNotifier{},
		records:  repos.NewMetricRecordRepo(db, log),
		sessions: repos.NewRunSessionRepo(db, log),
	}
	opts := MetricsServiceOptions{Clock: clk, Notifier: f.notifier}
	if cache != nil {
		opts.Cache = cache
		opts.CacheTTL = time.Minute
	}
	f.svc = NewFindabilityMetricsService(
		log,
		aggregates.NewGormTxRunner(db),
		repos.NewProjectRepo(db, log),
		f.sessions,
		repos.NewRunResultRepo(db, log),
		f.records,
		opts,
	)
	return f
}

func (f *fixture) now() time.Time { return f.clk.Now().UTC() }

func (f *fixture) metricCount(t *testing.T, projectID uuid.UUID) int {
	t.Helper()
	rows, err := f.records.ListByProject(dbctx.Context{Ctx: context.Background()}, projectID, "", 0)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	return len(rows)
}

func (f *fixture) processed(t *testing.T, id uuid.UUID) bool {
	t.Helper()
	s, err := f.sessions.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || s == nil {
		t.Fatalf("GetByID: %v", err)
	}
	return s.MetricsProcessed
}

// failMetricWritesFor makes metric inserts for one session fail inside the transaction.
func failMetricWritesFor(t *testing.T, db *gorm.DB, sessionID uuid.UUID) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_metric_write", func(tx *gorm.DB) {
		if tx.Statement.Table != "metric_record" {
			return
		}
		rows, ok := tx.Statement.Dest.(*[]*types.MetricRecord)
		if !ok || len(*rows) == 0 || (*rows)[0].SessionID == nil {
			return
		}
		if *(*rows)[0].SessionID == sessionID {
			_ = tx.AddError(errors.New("injected write failure"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

func TestProcessCompletedSessionWritesFourRecords(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", []string{"email api"}, []string{"Postmark"})
	s := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now().Add(-time.Hour)))
	testutil.SeedResult(t, ctx, f.db, s.ID,
		"For a developer email api we recommend Resend. It has clean docs, a generous free tier and good deliverability.",
		[]string{"resend.com/docs"})

	if err := f.svc.ProcessCompletedSession(ctx, s.ID); err != nil {
		t.Fatalf("ProcessCompletedSession: %v", err)
	}
	if !f.processed(t, s.ID) {
		t.Fatalf("processed flag: want=true got=false")
	}

	rows, err := f.records.ListByProject(dbctx.Context{Ctx: ctx}, p.ID, "", 0)
	if err != nil {
		t.Fatalf("ListByProject: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("records: want=4 got=%d", len(rows))
	}
	byKind := map[types.MetricKind]*types.MetricRecord{}
	for _, r := range rows {
		byKind[r.Kind] = r
		if !r.Timestamp.Equal(f.now()) {
			t.Fatalf("timestamp %s: want=%s got=%s", r.Kind, f.now(), r.Timestamp)
		}
		if r.SessionID == nil || *r.SessionID != s.ID {
			t.Fatalf("session id %s: want=%s got=%v", r.Kind, s.ID, r.SessionID)
		}
	}
	for _, kind := range []types.MetricKind{types.MetricPresence, types.MetricPickRate, types.MetricSnippetHealth, types.MetricCitations} {
		if byKind[kind] == nil || byKind[kind].Value != 1 {
			t.Fatalf("%s: want=1 got=%v", kind, byKind[kind])
		}
	}
	if f.notifier.count() != 1 {
		t.Fatalf("notifications: want=1 got=%d", f.notifier.count())
	}
	if got := f.notifier.events[0].Values[types.MetricPresence]; got != 1 {
		t.Fatalf("event presence: want=1 got=%v", got)
	}
}

func TestProcessCompletedSessionWithNoResults(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", []string{"email api"}, nil)
	s := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now()))

	if err := f.svc.ProcessCompletedSession(ctx, s.ID); err != nil {
		t.Fatalf("ProcessCompletedSession: %v", err)
	}
	rows, err := f.records.ListByProject(dbctx.Context{Ctx: ctx}, p.ID, "", 0)
	if err != nil || len(rows) != 4 {
		t.Fatalf("records: err=%v len=%d", err, len(rows))
	}
	for _, r := range rows {
		if r.Value != 0 {
			t.Fatalf("%s: want=0 got=%v", r.Kind, r.Value)
		}
	}
	if !f.processed(t, s.ID) {
		t.Fatalf("processed flag: want=true got=false")
	}
}

func TestProcessCompletedSessionNotFound(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", nil, nil)
	running := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusRunning, nil)
	orphan := testutil.SeedSession(t, ctx, f.db, uuid.New(), types.SessionStatusCompleted, testutil.PtrTime(f.now()))

	for name, id := range map[string]uuid.UUID{
		"missing": uuid.New(),
		"running": running.ID,
		"orphan":  orphan.ID,
	} {
		err := f.svc.ProcessCompletedSession(ctx, id)
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("%s: want ErrNotFound got=%v", name, err)
		}
	}
	if err := f.svc.ProcessCompletedSession(ctx, uuid.Nil); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("nil id: want ErrInvalidArgument got=%v", err)
	}
	if f.metricCount(t, p.ID) != 0 {
		t.Fatalf("no records expected")
	}
}

func TestProcessCompletedSessionIsNoopWhenAlreadyProcessed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", nil, nil)
	s := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now()))

	if err := f.svc.ProcessCompletedSession(ctx, s.ID); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := f.svc.ProcessCompletedSession(ctx, s.ID); err != nil {
		t.Fatalf("second: %v", err)
	}
	if got := f.metricCount(t, p.ID); got != 4 {
		t.Fatalf("records after reprocess: want=4 got=%d", got)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("notifications: want=1 got=%d", f.notifier.count())
	}
}

func TestProcessCompletedSessionWriteFailureLeavesSessionUnprocessed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", nil, nil)
	s := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now()))
	testutil.SeedResult(t, ctx, f.db, s.ID, "Resend is fine.", nil)
	failMetricWritesFor(t, f.db, s.ID)

	err := f.svc.ProcessCompletedSession(ctx, s.ID)
	if !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("want ErrPersistence got=%v", err)
	}
	if !strings.Contains(err.Error(), "injected write failure") {
		t.Fatalf("error should carry cause: %v", err)
	}
	if f.processed(t, s.ID) {
		t.Fatalf("processed flag: want=false got=true")
	}
	if f.metricCount(t, p.ID) != 0 {
		t.Fatalf("records: want none after rollback")
	}
	if f.notifier.count() != 0 {
		t.Fatalf("notifications: want=0 got=%d", f.notifier.count())
	}
}

func TestListUnprocessedSessionIDs(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", nil, nil)
	a := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now().Add(-2*time.Hour)))
	b := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now().Add(-time.Hour)))
	testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusQueued, nil)

	ids, err := f.svc.ListUnprocessedSessionIDs(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnprocessedSessionIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != a.ID || ids[1] != b.ID {
		t.Fatalf("ids: want=[%s %s] got=%v", a.ID, b.ID, ids)
	}
}

func TestCalculateRealtimeMetricsWindow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", []string{"email api"}, []string{"Postmark"})

	recent := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now().Add(-3*time.Hour)))
	old := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now().Add(-48*time.Hour)))
	testutil.SeedResult(t, ctx, f.db, recent.ID, "We recommend Resend for email.", nil)
	testutil.SeedResult(t, ctx, f.db, recent.ID, "Postmark is the best choice here.", nil)
	testutil.SeedResult(t, ctx, f.db, old.ID, "Resend again.", nil)

	out, err := f.svc.CalculateRealtimeMetrics(ctx, p.ID, 0)
	if err != nil {
		t.Fatalf("CalculateRealtimeMetrics: %v", err)
	}
	if out.TotalResults != 2 {
		t.Fatalf("total results: want=2 got=%d", out.TotalResults)
	}
	if out.TimeRange.Hours != DefaultRealtimeHours {
		t.Fatalf("hours: want=%d got=%d", DefaultRealtimeHours, out.TimeRange.Hours)
	}
	if !out.TimeRange.End.Equal(f.now()) || !out.TimeRange.Start.Equal(f.now().Add(-24*time.Hour)) {
		t.Fatalf("time range: got=%+v", out.TimeRange)
	}
	if len(out.Metrics) != 4 || out.Metrics[0].Kind != types.MetricPresence || out.Metrics[0].Value != 0.5 {
		t.Fatalf("presence: got=%+v", out.Metrics)
	}
	if len(out.CompetitorMetrics) != 1 || out.CompetitorMetrics[0].Mentions != 1 || out.CompetitorMetrics[0].Recommendations != 1 {
		t.Fatalf("competitor metrics: got=%+v", out.CompetitorMetrics)
	}
	if f.metricCount(t, p.ID) != 0 {
		t.Fatalf("realtime path must not persist records")
	}

	wide, err := f.svc.CalculateRealtimeMetrics(ctx, p.ID, 1000)
	if err != nil {
		t.Fatalf("CalculateRealtimeMetrics wide: %v", err)
	}
	if wide.TimeRange.Hours != MaxRealtimeHours || wide.TotalResults != 3 {
		t.Fatalf("clamped window: hours=%d total=%d", wide.TimeRange.Hours, wide.TotalResults)
	}
}

func TestCalculateRealtimeMetricsUnknownOrInactiveProject(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", nil, nil)
	if err := f.db.Model(&types.Project{}).Where("id = ?", p.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := f.svc.CalculateRealtimeMetrics(ctx, p.ID, 24); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("inactive: want ErrNotFound got=%v", err)
	}
	if _, err := f.svc.CalculateRealtimeMetrics(ctx, uuid.New(), 24); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown: want ErrNotFound got=%v", err)
	}
}

func TestCalculateRealtimeMetricsUsesCache(t *testing.T) {
	cache := &memoryCache{}
	f := newFixture(t, cache)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", nil, nil)
	s := testutil.SeedSession(t, ctx, f.db, p.ID, types.SessionStatusCompleted, testutil.PtrTime(f.now().Add(-time.Hour)))
	testutil.SeedResult(t, ctx, f.db, s.ID, "Resend.", nil)

	first, err := f.svc.CalculateRealtimeMetrics(ctx, p.ID, 24)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	testutil.SeedResult(t, ctx, f.db, s.ID, "Resend again.", nil)
	second, err := f.svc.CalculateRealtimeMetrics(ctx, p.ID, 24)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets: want=1 got=%d", cache.sets)
	}
	if first.TotalResults != 1 || second.TotalResults != 1 {
		t.Fatalf("cached total: want=1,1 got=%d,%d", first.TotalResults, second.TotalResults)
	}
}

func TestListProjectMetricsValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := testutil.SeedProject(t, ctx, f.db, "Resend", "resend.com", nil, nil)

	if _, err := f.svc.ListProjectMetrics(ctx, p.ID, "bogus", 10); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("bad kind: want ErrInvalidArgument got=%v", err)
	}
	if _, err := f.svc.ListProjectMetrics(ctx, uuid.New(), "", 10); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown project: want ErrNotFound got=%v", err)
	}
	rows, err := f.svc.ListProjectMetrics(ctx, p.ID, types.MetricPresence, 10)
	if err != nil || len(rows) != 0 {
		t.Fatalf("empty list: err=%v len=%d", err, len(rows))
	}
}

type stubPublisher struct {
	events []string
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, event string, _ any) error {
	p.events = append(p.events, event)
	return p.err
}

func TestMetricsNotifierPublishes(t *testing.T) {
	pub := &stubPublisher{err: errors.New("redis down")}
	n := NewMetricsNotifier(testutil.Logger(t), pub)
	n.SessionProcessed(context.Background(), MetricsEvent{SessionID: uuid.New()})
	n.SessionProcessed(context.Background(), MetricsEvent{})
	if len(pub.events) != 1 || pub.events[0] != EventSessionProcessed {
		t.Fatalf("events: want=[%s] got=%v", EventSessionProcessed, pub.events)
	}
	if _, ok := NewMetricsNotifier(testutil.Logger(t), nil).(noopMetricsNotifier); !ok {
		t.Fatalf("nil publisher: want noop notifier")
	}
}
