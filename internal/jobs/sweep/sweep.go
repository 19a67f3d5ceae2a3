package sweep

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/findable-backend/internal/observability"
	"github.com/yungbote/findable-backend/internal/pkg/logger"
)

const (
	DefaultInterval  = 5 * time.Minute
	DefaultBatchSize = 10
)

// SessionProcessor is the slice of the metrics service the sweep drives.
type SessionProcessor interface {
	ListUnprocessedSessionIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	ProcessCompletedSession(ctx context.Context, sessionID uuid.UUID) error
}

type State int32

const (
	StateIdle State = iota
	StateScanning
	StateProcessing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

type Options struct {
	BatchSize int
	Clock     clock.Clock
	Metrics   *observability.Metrics
}

// Sweeper finds completed sessions without metrics and processes them one at a time.
type Sweeper struct {
	log       *logger.Logger
	proc      SessionProcessor
	batchSize int
	clk       clock.Clock
	metrics   *observability.Metrics

	// runMu serializes batches so a manual sweep never overlaps a scheduled one.
	runMu sync.Mutex
	state atomic.Int32
}

func NewSweeper(baseLog *logger.Logger, proc SessionProcessor, opts Options) *Sweeper {
	s := &Sweeper{
		log:       baseLog.With("component", "MetricsSweeper"),
		proc:      proc,
		batchSize: opts.BatchSize,
		clk:       opts.Clock,
		metrics:   opts.Metrics,
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	return s
}

func (s *Sweeper) State() State {
	return State(s.state.Load())
}

// setState never leaves StateStopped.
func (s *Sweeper) setState(st State) {
	for {
		cur := s.state.Load()
		if State(cur) == StateStopped {
			return
		}
		if s.state.CompareAndSwap(cur, int32(st)) {
			return
		}
	}
}

// RunOnce processes a single batch and returns how many sessions succeeded. Individual session
// failures are logged and skipped; only a failed scan is returned as an error.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx, span := observability.Tracer().Start(ctx, "metrics.sweep")
	defer span.End()
	started := s.clk.Now()

	s.setState(StateScanning)
	defer s.setState(StateIdle)

	ids, err := s.proc.ListUnprocessedSessionIDs(ctx, s.batchSize)
	if err != nil {
		s.metrics.ObserveSweep("scan_failed", 0)
		span.RecordError(err)
		return 0, fmt.Errorf("scan unprocessed sessions: %w", err)
	}

	processed, failed := 0, 0
	for _, id := range ids {
		s.setState(StateProcessing)
		if err := s.processOne(ctx, id); err != nil {
			failed++
			s.log.Warn("session metrics failed; continuing", "session_id", id, "error", err)
		} else {
			processed++
		}
		s.setState(StateScanning)
	}

	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	s.metrics.ObserveSweep(status, len(ids))
	span.SetAttributes(
		attribute.Int("sweep.found", len(ids)),
		attribute.Int("sweep.processed", processed),
		attribute.Int("sweep.failed", failed),
	)
	if len(ids) > 0 {
		s.log.Info("sweep finished",
			"found", len(ids),
			"processed", processed,
			"failed", failed,
			"duration_ms", s.clk.Now().Sub(started).Milliseconds(),
		)
	}
	return processed, nil
}

func (s *Sweeper) processOne(ctx context.Context, id uuid.UUID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("session processing panic", "session_id", id, "panic", r)
			err = &panicError{Val: r}
		}
	}()
	return s.proc.ProcessCompletedSession(ctx, id)
}

// Start runs a batch on every tick until ctx is cancelled or the handle is stopped.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) *Handle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	loopCtx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	ticker := s.clk.Ticker(interval)
	s.state.Store(int32(StateIdle))
	s.log.Info("metrics sweep started", "interval", interval.String(), "batch_size", s.batchSize)

	go func() {
		defer close(h.done)
		defer s.state.Store(int32(StateStopped))
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if loopCtx.Err() != nil {
					return
				}
				// A batch in flight finishes even if Stop arrives mid-way.
				if _, err := s.RunOnce(context.WithoutCancel(loopCtx)); err != nil {
					s.log.Warn("metrics sweep failed", "error", err)
				}
			}
		}
	}()
	return h
}

// Handle controls a running sweep loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the timer and blocks until any in-flight batch has finished. Safe to call more
// than once.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }
