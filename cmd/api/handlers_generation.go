package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mzurek/cardsmith/internal/apierr"
	"github.com/mzurek/cardsmith/internal/generation"
	"github.com/mzurek/cardsmith/internal/metrics"
	"github.com/mzurek/cardsmith/internal/middleware"
	"github.com/mzurek/cardsmith/internal/quota"
	"github.com/mzurek/cardsmith/internal/tracing"
	"github.com/mzurek/cardsmith/pkg/models"
)

func requireUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierr.Unauthorized(c, "Authentication required")
	}
	return userID, ok
}

type generateResponse struct {
	GenerationID   string                    `json:"generation_id"`
	Candidates     []models.PendingFlashcard `json:"candidates"`
	Metadata       models.GenerationMetadata `json:"metadata"`
	QuotaRemaining int                       `json:"quota_remaining"`
}

// Generate flashcards endpoint. Orchestrates quota check, AI call,
// persistence of the candidates and fire-and-forget analytics.
func (api *API) generateFlashcards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	req, fieldErrs, err := generation.ParseRequest(body)
	if err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}
	if len(fieldErrs) > 0 {
		details := []apierr.Detail{}
		for field, messages := range fieldErrs {
			for _, message := range messages {
				details = append(details, apierr.Detail{Field: field, Message: message})
			}
		}
		apierr.BadRequest(c, "Invalid generation request", details...)
		return
	}

	used, err := api.quota.UsedToday(c.Request.Context(), userID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to check generation quota", err)
		apierr.Internal(c, "Failed to check generation quota")
		return
	}

	limit := api.quota.Limit()
	if used >= limit {
		metrics.RecordQuotaRejection()
		resetsAt := quota.NextMidnightUTC(time.Now()).Format(time.RFC3339)
		apierr.Respond(c, http.StatusTooManyRequests, apierr.CodeRateLimitExceeded,
			"Daily generation limit reached. Quota resets at "+resetsAt)
		return
	}

	span, ctx := tracing.StartSpan(c.Request.Context(), "generate_flashcards")
	tracing.SetTag(span, "user_id", userID)
	defer tracing.FinishSpan(span)

	start := time.Now()
	result, err := api.generator.Generate(ctx, req.SourceText, req.Hint)
	if err != nil {
		tracing.LogError(span, err)
		api.respondGenerationError(c, userID, err, time.Since(start))
		return
	}

	saved, err := api.store.CreatePendingFlashcards(ctx, userID, result.Candidates)
	if err != nil {
		tracing.LogError(span, err)
		api.logger.WithUserID(userID).ErrorWithErr("failed to save pending flashcards", err)
		apierr.Internal(c, "Failed to save generated flashcards")
		return
	}

	api.analytics.RecordAsync(userID, result.Metadata)
	api.logger.LogGeneration(userID, result.Metadata.Model, len(saved),
		result.Metadata.TokensUsed, time.Since(start), nil)
	metrics.RecordGeneration("success", time.Since(start).Seconds(),
		result.Metadata.InputTokens, result.Metadata.OutputTokens, len(saved))

	c.JSON(http.StatusOK, generateResponse{
		GenerationID:   uuid.New().String(),
		Candidates:     saved,
		Metadata:       result.Metadata,
		QuotaRemaining: limit - used - 1,
	})
}

// respondGenerationError maps generation failures to API errors. Provider
// trouble is 503, a malformed model response is a server-side 500.
func (api *API) respondGenerationError(c *gin.Context, userID string, err error, elapsed time.Duration) {
	logger := api.logger.WithUserID(userID)

	var respErr *generation.ResponseError
	var apiErr *generation.APIError

	switch {
	case errors.Is(err, generation.ErrTimeout):
		metrics.RecordGeneration("timeout", elapsed.Seconds(), 0, 0, 0)
		logger.ErrorWithErr("generation timed out", err)
		apierr.Unavailable(c, "The AI service did not respond in time. Please try again.")

	case errors.As(err, &apiErr):
		metrics.RecordGeneration("provider_error", elapsed.Seconds(), 0, 0, 0)
		logger.WithField("status_code", apiErr.StatusCode).ErrorWithErr("generation provider error", err)
		apierr.Unavailable(c, "The AI service is currently unavailable. Please try again later.")

	case errors.As(err, &respErr):
		metrics.RecordGeneration("invalid_response", elapsed.Seconds(), 0, 0, 0)
		logger.ErrorWithErr("generation returned an invalid response", err)
		apierr.Internal(c, "The AI service returned an invalid response")

	default:
		metrics.RecordGeneration("error", elapsed.Seconds(), 0, 0, 0)
		logger.ErrorWithErr("generation failed", err)
		apierr.Internal(c, "Failed to generate flashcards")
	}
}
