package services

import (
	"context"
	"time"
)

// RealtimeCache stores computed realtime windows as JSON. Get reports false on a miss.
type RealtimeCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}
