package models

import (
	"time"
)

// Set is a named collection of flashcards owned by one user.
type Set struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"-" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SetListItem is a set together with its current card count, as returned
// by list endpoints.
type SetListItem struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    *string   `json:"description"`
	FlashcardCount int       `json:"flashcard_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SetSummary is the short destination descriptor returned by accept
// operations.
type SetSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FlashcardCount int    `json:"flashcard_count"`
}
