// Package analytics records token usage and estimated cost for AI
// generation calls. Recording is fire-and-forget: a failure here must
// never block or fail a user-facing response.
package analytics

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mzurek/cardsmith/internal/logging"
	"github.com/mzurek/cardsmith/pkg/models"
)

// Provider name stamped on every record.
const provider = "openrouter"

// Recorder persists generation records.
type Recorder interface {
	CreateGenerationRecord(ctx context.Context, record *models.GenerationRecord) error
}

// Invalidator drops a user's cached quota count after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// Service handles generation analytics tracking
type Service struct {
	repo        Recorder
	invalidator Invalidator
	logger      *logging.Logger
	timeout     time.Duration

	wg sync.WaitGroup
}

// NewService creates a new analytics service. invalidator may be nil.
func NewService(repo Recorder, invalidator Invalidator, logger *logging.Logger) *Service {
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		logger:      logger,
		timeout:     10 * time.Second,
	}
}

// Record persists a generation analytics row. Errors are logged and
// swallowed.
func (s *Service) Record(ctx context.Context, userID string, meta models.GenerationMetadata) {
	record := &models.GenerationRecord{
		UserID:       userID,
		Model:        meta.Model,
		Provider:     provider,
		InputTokens:  meta.InputTokens,
		OutputTokens: meta.OutputTokens,
		DurationMs:   meta.GenerationTimeMs,
		CostUSD:      CalculateCost(meta.InputTokens+meta.OutputTokens, meta.Model),
	}

	if err := s.repo.CreateGenerationRecord(ctx, record); err != nil {
		s.logger.WithUserID(userID).ErrorWithErr("failed to record generation analytics", err)
		return
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID)
	}
}

// RecordAsync spawns Record on a detached goroutine with its own
// timeout, so the caller's request lifecycle never waits on analytics.
func (s *Service) RecordAsync(userID string, meta models.GenerationMetadata) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.Record(ctx, userID, meta)
	}()
}

// Wait blocks until in-flight recordings finish. Used on shutdown and in
// tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Per-1000-token rates by model name substring, checked in order.
// Approximate blended input/output prices.
var modelRates = []struct {
	substring string
	per1k     float64
}{
	{"gpt-4-turbo", 0.02},
	{"gpt-3.5-turbo", 0.001},
}

const defaultRatePer1k = 0.01

// CalculateCost estimates the USD cost of a generation call. The rate is
// looked up by case-insensitive substring match on the model name, with
// a default for unknown models. Cost is linear in the token count.
func CalculateCost(totalTokens int, model string) float64 {
	if totalTokens <= 0 {
		return 0
	}

	rate := defaultRatePer1k
	lower := strings.ToLower(model)
	for _, mr := range modelRates {
		if strings.Contains(lower, mr.substring) {
			rate = mr.per1k
			break
		}
	}

	return float64(totalTokens) / 1000 * rate
}
