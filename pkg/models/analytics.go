package models

import (
	"time"
)

// GenerationRecord is an append-only analytics row written once per AI
// generation call. It never references flashcard content.
type GenerationRecord struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Model        string    `json:"model" db:"model"`
	Provider     string    `json:"provider" db:"provider"`
	InputTokens  int       `json:"input_tokens" db:"input_tokens"`
	OutputTokens int       `json:"output_tokens" db:"output_tokens"`
	DurationMs   int64     `json:"duration_ms" db:"duration_ms"`
	CostUSD      float64   `json:"cost_usd" db:"cost_usd"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// GenerationMetadata describes a single completed generation call, as
// reported to the client and to analytics.
type GenerationMetadata struct {
	Model            string `json:"model"`
	InputTokens      int    `json:"input_tokens"`
	OutputTokens     int    `json:"output_tokens"`
	TokensUsed       int    `json:"tokens_used"`
	GenerationTimeMs int64  `json:"generation_time_ms"`
}

// QuotaStatus describes a user's daily generation allowance.
type QuotaStatus struct {
	DailyLimit int       `json:"daily_limit"`
	UsedToday  int       `json:"used_today"`
	Remaining  int       `json:"remaining"`
	ResetsAt   time.Time `json:"resets_at"`
}
