package storage

import (
	"context"
	"time"

	"autopost/internal/model"
)

// UsageTracker is what the posting pipeline needs from persistence.
type UsageTracker interface {
	// FetchUnused returns the topics of set lacking a used marker.
	FetchUnused(ctx context.Context, set string) ([]model.Topic, error)
	// MarkUsed is idempotent: marking a used topic again changes nothing.
	MarkUsed(ctx context.Context, topic model.Topic, set string, ts time.Time) error
}

var _ UsageTracker = (*RedisStore)(nil)
