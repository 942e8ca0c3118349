package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mzurek/cardsmith/pkg/models"
)

// Repository provides database operations. Every query is scoped by
// user_id so one user can never read or mutate another user's rows.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Pending flashcards

// CreatePendingFlashcards bulk-inserts AI candidates as pending rows and
// returns the stored rows. An empty result is treated as an error: a
// generation call must never silently store nothing.
func (r *Repository) CreatePendingFlashcards(ctx context.Context, userID string, candidates []models.Candidate) ([]models.PendingFlashcard, error) {
	query := `
		INSERT INTO pending_flashcards (id, user_id, front_draft, back_draft)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, front_draft, back_draft, created_at, updated_at
	`

	batch := &pgx.Batch{}
	for _, candidate := range candidates {
		batch.Queue(query, uuid.New().String(), userID, candidate.Front, candidate.Back)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	saved := make([]models.PendingFlashcard, 0, len(candidates))
	for range candidates {
		var pf models.PendingFlashcard
		err := results.QueryRow().Scan(
			&pf.ID, &pf.UserID, &pf.FrontDraft, &pf.BackDraft, &pf.CreatedAt, &pf.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert pending flashcard: %w", err)
		}
		saved = append(saved, pf)
	}

	if len(saved) == 0 {
		return nil, ErrNoRowsInserted
	}

	return saved, nil
}

// ListPendingFlashcards retrieves all pending flashcards for a user
func (r *Repository) ListPendingFlashcards(ctx context.Context, userID string) ([]models.PendingFlashcard, error) {
	query := `
		SELECT id, user_id, front_draft, back_draft, created_at, updated_at
		FROM pending_flashcards
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending flashcards: %w", err)
	}
	defer rows.Close()

	flashcards := []models.PendingFlashcard{}
	for rows.Next() {
		var pf models.PendingFlashcard
		err := rows.Scan(&pf.ID, &pf.UserID, &pf.FrontDraft, &pf.BackDraft, &pf.CreatedAt, &pf.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending flashcard: %w", err)
		}
		flashcards = append(flashcards, pf)
	}

	return flashcards, nil
}

// CountPendingFlashcards returns the number of pending flashcards a user has
func (r *Repository) CountPendingFlashcards(ctx context.Context, userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM pending_flashcards WHERE user_id = $1`

	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending flashcards: %w", err)
	}

	return count, nil
}

// GetPendingFlashcard retrieves a single pending flashcard owned by the user
func (r *Repository) GetPendingFlashcard(ctx context.Context, userID, id string) (*models.PendingFlashcard, error) {
	var pf models.PendingFlashcard

	query := `
		SELECT id, user_id, front_draft, back_draft, created_at, updated_at
		FROM pending_flashcards
		WHERE id = $1 AND user_id = $2
	`

	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(
		&pf.ID, &pf.UserID, &pf.FrontDraft, &pf.BackDraft, &pf.CreatedAt, &pf.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending flashcard: %w", err)
	}

	return &pf, nil
}

// UpdatePendingFlashcard updates the draft fields of a pending flashcard.
// Nil fields are left unchanged.
func (r *Repository) UpdatePendingFlashcard(ctx context.Context, userID, id string, frontDraft, backDraft *string) (*models.PendingFlashcard, error) {
	var pf models.PendingFlashcard

	query := `
		UPDATE pending_flashcards
		SET front_draft = COALESCE($3, front_draft),
		    back_draft = COALESCE($4, back_draft),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, front_draft, back_draft, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query, id, userID, frontDraft, backDraft).Scan(
		&pf.ID, &pf.UserID, &pf.FrontDraft, &pf.BackDraft, &pf.CreatedAt, &pf.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update pending flashcard: %w", err)
	}

	return &pf, nil
}

// DeletePendingFlashcard removes a pending flashcard owned by the user
func (r *Repository) DeletePendingFlashcard(ctx context.Context, userID, id string) error {
	query := `DELETE FROM pending_flashcards WHERE id = $1 AND user_id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete pending flashcard: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteManyPendingFlashcards removes the given pending flashcards and
// returns the ids that were actually deleted. Ids that do not exist or
// belong to another user are silently excluded from the result.
func (r *Repository) DeleteManyPendingFlashcards(ctx context.Context, userID string, ids []string) ([]string, error) {
	query := `
		DELETE FROM pending_flashcards
		WHERE user_id = $1 AND id = ANY($2)
		RETURNING id
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to delete pending flashcards: %w", err)
	}
	defer rows.Close()

	deleted := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted id: %w", err)
		}
		deleted = append(deleted, id)
	}

	return deleted, nil
}

// Promotion

// PromotePendingFlashcard converts a pending flashcard into a permanent
// flashcard inside a set. The insert and the delete of the pending row
// run in one transaction, so a failure leaves neither a duplicate nor a
// dangling row.
func (r *Repository) PromotePendingFlashcard(ctx context.Context, userID, pendingID, setID string) (*models.Flashcard, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin promotion: %w", err)
	}
	defer tx.Rollback(ctx)

	var pf models.PendingFlashcard
	err = tx.QueryRow(ctx, `
		SELECT id, front_draft, back_draft
		FROM pending_flashcards
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, pendingID, userID).Scan(&pf.ID, &pf.FrontDraft, &pf.BackDraft)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock pending flashcard: %w", err)
	}

	var card models.Flashcard
	err = tx.QueryRow(ctx, `
		INSERT INTO flashcards (id, set_id, user_id, front, back)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, set_id, user_id, front, back, created_at, updated_at
	`, uuid.New().String(), setID, userID, pf.FrontDraft, pf.BackDraft).Scan(
		&card.ID, &card.SetID, &card.UserID, &card.Front, &card.Back, &card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flashcard: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pending_flashcards WHERE id = $1 AND user_id = $2`, pendingID, userID); err != nil {
		return nil, fmt.Errorf("failed to delete promoted pending flashcard: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit promotion: %w", err)
	}

	return &card, nil
}

// PromoteManyPendingFlashcards promotes a batch of pending flashcards
// into a set. Ids that are missing or not owned by the user are returned
// in notFound; the rest are promoted atomically.
func (r *Repository) PromoteManyPendingFlashcards(ctx context.Context, userID string, pendingIDs []string, setID string) ([]models.Flashcard, []string, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin bulk promotion: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, front_draft, back_draft
		FROM pending_flashcards
		WHERE user_id = $1 AND id = ANY($2)
		FOR UPDATE
	`, userID, pendingIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock pending flashcards: %w", err)
	}

	type draft struct {
		id    string
		front string
		back  string
	}

	found := map[string]draft{}
	for rows.Next() {
		var d draft
		if err := rows.Scan(&d.id, &d.front, &d.back); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan pending flashcard: %w", err)
		}
		found[d.id] = d
	}
	rows.Close()

	notFound := []string{}
	for _, id := range pendingIDs {
		if _, ok := found[id]; !ok {
			notFound = append(notFound, id)
		}
	}

	flashcards := []models.Flashcard{}
	// Preserve the request order for the promoted cards.
	for _, id := range pendingIDs {
		d, ok := found[id]
		if !ok {
			continue
		}

		var card models.Flashcard
		err := tx.QueryRow(ctx, `
			INSERT INTO flashcards (id, set_id, user_id, front, back)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, set_id, user_id, front, back, created_at, updated_at
		`, uuid.New().String(), setID, userID, d.front, d.back).Scan(
			&card.ID, &card.SetID, &card.UserID, &card.Front, &card.Back, &card.CreatedAt, &card.UpdatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create flashcard: %w", err)
		}
		flashcards = append(flashcards, card)

		if _, err := tx.Exec(ctx, `DELETE FROM pending_flashcards WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
			return nil, nil, fmt.Errorf("failed to delete promoted pending flashcard: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit bulk promotion: %w", err)
	}

	return flashcards, notFound, nil
}
