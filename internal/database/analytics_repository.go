package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mzurek/cardsmith/pkg/models"
)

// Generation analytics

// CreateGenerationRecord appends a generation analytics row
func (r *Repository) CreateGenerationRecord(ctx context.Context, record *models.GenerationRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	query := `
		INSERT INTO generation_analytics (
			id, user_id, model, provider, input_tokens, output_tokens, duration_ms, cost_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		record.ID, record.UserID, record.Model, record.Provider,
		record.InputTokens, record.OutputTokens, record.DurationMs, record.CostUSD,
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create generation record: %w", err)
	}

	return nil
}

// CountGenerationsSince counts a user's generation calls recorded at or
// after the given instant. Used to derive the daily quota.
func (r *Repository) CountGenerationsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int

	query := `
		SELECT COUNT(*)
		FROM generation_analytics
		WHERE user_id = $1 AND created_at >= $2
	`

	if err := r.db.Pool.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}

	return count, nil
}
