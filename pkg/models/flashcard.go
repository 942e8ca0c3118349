package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length bounds shared by request validation, AI response validation
// and the generation prompt. Keeping them in one place guarantees the
// contract sent to the model can never drift from what we accept back.
const (
	FrontMinLen = 1
	FrontMaxLen = 200
	BackMinLen  = 1
	BackMaxLen  = 600

	SourceTextMinLen = 1000
	SourceTextMaxLen = 100000
	HintMaxLen       = 500

	MinCandidates = 1
	MaxCandidates = 20

	SetNameMinLen        = 1
	SetNameMaxLen        = 128
	SetDescriptionMaxLen = 1000

	// Bulk operations on pending flashcards accept at most this many ids.
	MaxBulkIDs = 50
)

// Candidate is a single front/back pair proposed by the AI model.
type Candidate struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Validate checks the candidate against the shared field bounds.
// Leading/trailing whitespace does not count towards the minimum.
func (c Candidate) Validate() error {
	front := strings.TrimSpace(c.Front)
	back := strings.TrimSpace(c.Back)

	// Bounds are in characters, not bytes, so multibyte text is measured
	// the same way the caller sees it.
	if n := utf8.RuneCountInString(front); n < FrontMinLen || n > FrontMaxLen {
		return fmt.Errorf("front must be between %d and %d characters", FrontMinLen, FrontMaxLen)
	}
	if n := utf8.RuneCountInString(back); n < BackMinLen || n > BackMaxLen {
		return fmt.Errorf("back must be between %d and %d characters", BackMinLen, BackMaxLen)
	}

	return nil
}

// PendingFlashcard is an AI-generated candidate awaiting user review.
// Rows live in a holding area and are never studied directly: accepting
// one promotes it into a Flashcard, rejecting one deletes it.
type PendingFlashcard struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"-" db:"user_id"`
	FrontDraft string    `json:"front_draft" db:"front_draft"`
	BackDraft  string    `json:"back_draft" db:"back_draft"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Flashcard is a permanent card inside a set, created only by promoting
// a pending flashcard.
type Flashcard struct {
	ID        string    `json:"id" db:"id"`
	SetID     string    `json:"set_id" db:"set_id"`
	UserID    string    `json:"-" db:"user_id"`
	Front     string    `json:"front" db:"front"`
	Back      string    `json:"back" db:"back"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
