package domain

import "github.com/yungbote/findable-backend/internal/domain/findability"

type (
	Project        = findability.Project
	RunSession     = findability.RunSession
	RunResult      = findability.RunResult
	MetricRecord   = findability.MetricRecord
	MetricKind     = findability.MetricKind
	MetricMetadata = findability.MetricMetadata
	CompetitorStat = findability.CompetitorStat
)

const (
	SessionStatusQueued    = findability.SessionStatusQueued
	SessionStatusRunning   = findability.SessionStatusRunning
	SessionStatusCompleted = findability.SessionStatusCompleted
	SessionStatusFailed    = findability.SessionStatusFailed

	MetricPresence      = findability.MetricPresence
	MetricPickRate      = findability.MetricPickRate
	MetricSnippetHealth = findability.MetricSnippetHealth
	MetricCitations     = findability.MetricCitations
)
