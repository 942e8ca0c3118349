package main

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzurek/cardsmith/internal/generation"
	"github.com/mzurek/cardsmith/pkg/models"
)

func validGenerateBody() map[string]any {
	return map[string]any{
		"source_text": strings.Repeat("The mitochondria is the powerhouse of the cell. ", 25),
	}
}

func cannedResult() *generation.Result {
	return &generation.Result{
		Candidates: []models.Candidate{
			{Front: "What organelle produces ATP?", Back: "The mitochondria."},
			{Front: "What is ATP used for?", Back: "Cellular energy transfer."},
		},
		Metadata: models.GenerationMetadata{
			Model:            "openai/gpt-4-turbo",
			InputTokens:      1200,
			OutputTokens:     300,
			TokensUsed:       1500,
			GenerationTimeMs: 2100,
		},
	}
}

func TestGenerateFlashcards(t *testing.T) {
	env := newTestEnv(t)
	env.generator.result = cannedResult()
	env.quota.used = 3

	w := env.do(t, "POST", "/api/v1/flashcards/generate", validGenerateBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		GenerationID   string                    `json:"generation_id"`
		Candidates     []models.PendingFlashcard `json:"candidates"`
		Metadata       models.GenerationMetadata `json:"metadata"`
		QuotaRemaining int                       `json:"quota_remaining"`
	}
	decodeJSON(t, w, &resp)

	assert.NotEmpty(t, resp.GenerationID)
	require.Len(t, resp.Candidates, 2)
	assert.Equal(t, "What organelle produces ATP?", resp.Candidates[0].FrontDraft)
	assert.NotEmpty(t, resp.Candidates[0].ID)
	assert.Equal(t, "openai/gpt-4-turbo", resp.Metadata.Model)
	assert.Equal(t, 1500, resp.Metadata.TokensUsed)
	assert.Equal(t, 6, resp.QuotaRemaining)

	// Candidates are persisted as pending flashcards.
	pending, err := env.store.ListPendingFlashcards(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// Usage was handed to analytics.
	assert.Equal(t, 1, env.analytics.count())
}

func TestGenerateFlashcardsRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.doAnon(t, "POST", "/api/v1/flashcards/generate", validGenerateBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestGenerateFlashcardsValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing source_text", map[string]any{}},
		{"source_text too short", map[string]any{"source_text": "too short"}},
		{"source_text wrong type", map[string]any{"source_text": 42}},
		{"hint too long", map[string]any{
			"source_text": strings.Repeat("a", 1000),
			"hint":        strings.Repeat("h", 501),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/api/v1/flashcards/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

			var body struct {
				Error struct {
					Details []struct {
						Field   string `json:"field"`
						Message string `json:"message"`
					} `json:"details"`
				} `json:"error"`
			}
			decodeJSON(t, w, &body)
			assert.NotEmpty(t, body.Error.Details)
		})
	}
}

func TestGenerateFlashcardsQuotaExhausted(t *testing.T) {
	env := newTestEnv(t)
	env.generator.result = cannedResult()
	env.quota.used = 10

	w := env.do(t, "POST", "/api/v1/flashcards/generate", validGenerateBody())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, w))

	// Nothing reached the model or the database.
	pending, err := env.store.ListPendingFlashcards(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Zero(t, env.analytics.count())
}

func TestGenerateFlashcardsProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "timeout",
			err:        generation.ErrTimeout,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "AI_SERVICE_UNAVAILABLE",
		},
		{
			name:       "provider 502",
			err:        &generation.APIError{StatusCode: 502},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "AI_SERVICE_UNAVAILABLE",
		},
		{
			name:       "invalid model output",
			err:        &generation.ResponseError{Reason: "model returned invalid JSON"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.generator.err = tt.err

			w := env.do(t, "POST", "/api/v1/flashcards/generate", validGenerateBody())
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
			assert.Zero(t, env.analytics.count())
		})
	}
}

func TestGetGenerationQuota(t *testing.T) {
	env := newTestEnv(t)
	env.quota.used = 4

	w := env.do(t, "GET", "/api/v1/users/me/generation-quota", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status models.QuotaStatus
	decodeJSON(t, w, &status)
	assert.Equal(t, 10, status.DailyLimit)
	assert.Equal(t, 4, status.UsedToday)
	assert.Equal(t, 6, status.Remaining)
	assert.False(t, status.ResetsAt.IsZero())
}
