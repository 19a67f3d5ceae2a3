package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/findable-backend/internal/domain"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, name, domain string, keywords, competitors []string) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:          uuid.New(),
		Name:        name,
		Slug:        name,
		Domain:      domain,
		Keywords:    keywords,
		Competitors: competitors,
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, status string, completedAt *time.Time) *types.RunSession {
	tb.Helper()
	s := &types.RunSession{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Status:      status,
		Priority:    "normal",
		CompletedAt: completedAt,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedResult(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, response string, citations []string) *types.RunResult {
	tb.Helper()
	r := &types.RunResult{
		ID:                uuid.New(),
		SessionID:         sessionID,
		QueryText:         "best email api for developers",
		ResponseText:      response,
		Citations:         citations,
		ExtractedSnippets: []string{},
		Mentions:          []string{},
		ExecutionTimeMs:   120,
		Surface:           "web",
		Model:             "gpt-4",
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed result: %v", err)
	}
	return r
}

func PtrTime(v time.Time) *time.Time { return &v }
