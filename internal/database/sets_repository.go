package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mzurek/cardsmith/pkg/models"
)

// Sets

// CreateSet creates a new flashcard set for a user
func (r *Repository) CreateSet(ctx context.Context, userID, name string, description *string) (*models.Set, error) {
	var set models.Set

	query := `
		INSERT INTO sets (id, user_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, description, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query, uuid.New().String(), userID, name, description).Scan(
		&set.ID, &set.UserID, &set.Name, &set.Description, &set.CreatedAt, &set.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create set: %w", err)
	}

	return &set, nil
}

// GetSet retrieves a set owned by the user
func (r *Repository) GetSet(ctx context.Context, userID, id string) (*models.Set, error) {
	var set models.Set

	query := `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM sets
		WHERE id = $1 AND user_id = $2
	`

	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(
		&set.ID, &set.UserID, &set.Name, &set.Description, &set.CreatedAt, &set.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get set: %w", err)
	}

	return &set, nil
}

// ListSets retrieves all sets for a user together with their card counts
func (r *Repository) ListSets(ctx context.Context, userID string) ([]models.SetListItem, error) {
	query := `
		SELECT s.id, s.name, s.description, COUNT(f.id), s.created_at, s.updated_at
		FROM sets s
		LEFT JOIN flashcards f ON f.set_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}
	defer rows.Close()

	sets := []models.SetListItem{}
	for rows.Next() {
		var item models.SetListItem
		err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.FlashcardCount, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan set: %w", err)
		}
		sets = append(sets, item)
	}

	return sets, nil
}

// UpdateSet updates a set's name and/or description. Nil fields are left
// unchanged.
func (r *Repository) UpdateSet(ctx context.Context, userID, id string, name, description *string) (*models.Set, error) {
	var set models.Set

	query := `
		UPDATE sets
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, description, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query, id, userID, name, description).Scan(
		&set.ID, &set.UserID, &set.Name, &set.Description, &set.CreatedAt, &set.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update set: %w", err)
	}

	return &set, nil
}

// DeleteSet removes a set and all flashcards inside it
func (r *Repository) DeleteSet(ctx context.Context, userID, id string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin set deletion: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM flashcards WHERE set_id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("failed to delete flashcards in set: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM sets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// GetSetSummary returns the short destination descriptor for a set,
// including the current card count.
func (r *Repository) GetSetSummary(ctx context.Context, userID, id string) (*models.SetSummary, error) {
	var summary models.SetSummary

	query := `
		SELECT s.id, s.name, COUNT(f.id)
		FROM sets s
		LEFT JOIN flashcards f ON f.set_id = s.id
		WHERE s.id = $1 AND s.user_id = $2
		GROUP BY s.id
	`

	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(&summary.ID, &summary.Name, &summary.FlashcardCount)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get set summary: %w", err)
	}

	return &summary, nil
}

// ListFlashcardsBySet retrieves all flashcards inside a set owned by the user
func (r *Repository) ListFlashcardsBySet(ctx context.Context, userID, setID string) ([]models.Flashcard, error) {
	query := `
		SELECT id, set_id, user_id, front, back, created_at, updated_at
		FROM flashcards
		WHERE set_id = $1 AND user_id = $2
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, setID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	defer rows.Close()

	flashcards := []models.Flashcard{}
	for rows.Next() {
		var card models.Flashcard
		err := rows.Scan(&card.ID, &card.SetID, &card.UserID, &card.Front, &card.Back, &card.CreatedAt, &card.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flashcard: %w", err)
		}
		flashcards = append(flashcards, card)
	}

	return flashcards, nil
}
