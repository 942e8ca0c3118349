// Package quota derives a user's daily AI generation allowance from the
// analytics log: the quota is the count of generation records since UTC
// midnight compared against a configured ceiling. Nothing is stored for
// the quota itself.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/mzurek/cardsmith/pkg/models"
)

// Counter counts generation calls recorded at or after an instant.
type Counter interface {
	CountGenerationsSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Cache is an optional read-through cache for today's count. A miss is
// not an error; cache failures only cost a database round trip.
type Cache interface {
	GetQuotaCount(ctx context.Context, userID, day string) (int, bool, error)
	SetQuotaCount(ctx context.Context, userID, day string, count int, ttl time.Duration) error
	InvalidateQuotaCount(ctx context.Context, userID, day string) error
}

// Service tracks per-user daily generation usage
type Service struct {
	counter Counter
	cache   Cache
	limit   int
	now     func() time.Time
}

// NewService creates a quota service. cache may be nil.
func NewService(counter Counter, cache Cache, dailyLimit int) *Service {
	return &Service{
		counter: counter,
		cache:   cache,
		limit:   dailyLimit,
		now:     time.Now,
	}
}

// Limit returns the configured daily ceiling
func (s *Service) Limit() int {
	return s.limit
}

// UsedToday returns how many generations the user has made since UTC
// midnight.
func (s *Service) UsedToday(ctx context.Context, userID string) (int, error) {
	now := s.now().UTC()
	day := now.Format("2006-01-02")

	if s.cache != nil {
		if count, ok, err := s.cache.GetQuotaCount(ctx, userID, day); err == nil && ok {
			return count, nil
		}
	}

	count, err := s.counter.CountGenerationsSince(ctx, userID, StartOfDayUTC(now))
	if err != nil {
		return 0, fmt.Errorf("failed to check daily quota: %w", err)
	}

	if s.cache != nil {
		// Best effort; the analytics recorder invalidates on write.
		_ = s.cache.SetQuotaCount(ctx, userID, day, count, NextMidnightUTC(now).Sub(now))
	}

	return count, nil
}

// Invalidate drops the cached count for today, forcing the next check to
// hit the database.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}

	day := s.now().UTC().Format("2006-01-02")
	_ = s.cache.InvalidateQuotaCount(ctx, userID, day)
}

// Status reports the full quota picture for a user
func (s *Service) Status(ctx context.Context, userID string) (*models.QuotaStatus, error) {
	used, err := s.UsedToday(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining := s.limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &models.QuotaStatus{
		DailyLimit: s.limit,
		UsedToday:  used,
		Remaining:  remaining,
		ResetsAt:   NextMidnightUTC(s.now()),
	}, nil
}

// StartOfDayUTC returns UTC midnight of the day containing t.
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextMidnightUTC returns the first UTC midnight strictly after t. At
// exactly midnight it returns the following midnight: the day that just
// started counts as "today".
func NextMidnightUTC(t time.Time) time.Time {
	return StartOfDayUTC(t).Add(24 * time.Hour)
}
