package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/mzurek/cardsmith/internal/apierr"
	"github.com/mzurek/cardsmith/internal/database"
	"github.com/mzurek/cardsmith/internal/metrics"
	"github.com/mzurek/cardsmith/pkg/models"
)

// List pending flashcards endpoint
func (api *API) listPendingFlashcards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	pending, err := api.store.ListPendingFlashcards(c.Request.Context(), userID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to list pending flashcards", err)
		apierr.Internal(c, "Failed to list pending flashcards")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  pending,
		"count": len(pending),
	})
}

// Count pending flashcards endpoint
func (api *API) countPendingFlashcards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	count, err := api.store.CountPendingFlashcards(c.Request.Context(), userID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to count pending flashcards", err)
		apierr.Internal(c, "Failed to count pending flashcards")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

type updatePendingRequest struct {
	FrontDraft *string `json:"front_draft"`
	BackDraft  *string `json:"back_draft"`
}

func (r *updatePendingRequest) validate() []apierr.Detail {
	details := []apierr.Detail{}

	if r.FrontDraft == nil && r.BackDraft == nil {
		details = append(details, apierr.Detail{
			Field: "front_draft", Message: "at least one of front_draft or back_draft is required",
		})
		return details
	}

	if r.FrontDraft != nil {
		trimmed := strings.TrimSpace(*r.FrontDraft)
		if n := utf8.RuneCountInString(trimmed); n < models.FrontMinLen || n > models.FrontMaxLen {
			details = append(details, apierr.Detail{
				Field:   "front_draft",
				Message: fmt.Sprintf("front_draft must be between %d and %d characters", models.FrontMinLen, models.FrontMaxLen),
			})
		} else {
			r.FrontDraft = &trimmed
		}
	}

	if r.BackDraft != nil {
		trimmed := strings.TrimSpace(*r.BackDraft)
		if n := utf8.RuneCountInString(trimmed); n < models.BackMinLen || n > models.BackMaxLen {
			details = append(details, apierr.Detail{
				Field:   "back_draft",
				Message: fmt.Sprintf("back_draft must be between %d and %d characters", models.BackMinLen, models.BackMaxLen),
			})
		} else {
			r.BackDraft = &trimmed
		}
	}

	return details
}

// Update pending flashcard endpoint
func (api *API) updatePendingFlashcard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req updatePendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	if details := req.validate(); len(details) > 0 {
		apierr.BadRequest(c, "Invalid pending flashcard update", details...)
		return
	}

	updated, err := api.store.UpdatePendingFlashcard(c.Request.Context(), userID, c.Param("id"), req.FrontDraft, req.BackDraft)
	if errors.Is(err, database.ErrNotFound) {
		apierr.NotFound(c, "Pending flashcard not found")
		return
	}
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to update pending flashcard", err)
		apierr.Internal(c, "Failed to update pending flashcard")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete (reject) pending flashcard endpoint
func (api *API) deletePendingFlashcard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	err := api.store.DeletePendingFlashcard(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		apierr.NotFound(c, "Pending flashcard not found")
		return
	}
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to delete pending flashcard", err)
		apierr.Internal(c, "Failed to delete pending flashcard")
		return
	}

	metrics.RecordFlashcardsRejected(1)
	c.Status(http.StatusNoContent)
}

// destination names where accepted flashcards go: an existing set or a
// set created on the fly. Exactly one option must be provided.
type destination struct {
	SetID  *string `json:"set_id"`
	NewSet *struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
	} `json:"new_set"`
}

func (d *destination) validate() []apierr.Detail {
	details := []apierr.Detail{}

	if (d.SetID == nil) == (d.NewSet == nil) {
		details = append(details, apierr.Detail{
			Field: "set_id", Message: "exactly one of set_id or new_set is required",
		})
		return details
	}

	if d.NewSet != nil {
		name := strings.TrimSpace(d.NewSet.Name)
		if n := utf8.RuneCountInString(name); n < models.SetNameMinLen || n > models.SetNameMaxLen {
			details = append(details, apierr.Detail{
				Field:   "new_set.name",
				Message: fmt.Sprintf("name must be between %d and %d characters", models.SetNameMinLen, models.SetNameMaxLen),
			})
		}
		d.NewSet.Name = name

		if d.NewSet.Description != nil && utf8.RuneCountInString(*d.NewSet.Description) > models.SetDescriptionMaxLen {
			details = append(details, apierr.Detail{
				Field:   "new_set.description",
				Message: fmt.Sprintf("description must not exceed %d characters", models.SetDescriptionMaxLen),
			})
		}
	}

	return details
}

// resolveDestination returns the id of the target set, creating it when
// the caller asked for a new one. ok is false when a response has
// already been written.
func (api *API) resolveDestination(c *gin.Context, userID string, dest *destination) (string, bool) {
	if dest.SetID != nil {
		if _, err := api.store.GetSet(c.Request.Context(), userID, *dest.SetID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				apierr.NotFound(c, "Set not found")
				return "", false
			}
			api.logger.WithUserID(userID).ErrorWithErr("failed to look up set", err)
			apierr.Internal(c, "Failed to look up set")
			return "", false
		}
		return *dest.SetID, true
	}

	set, err := api.store.CreateSet(c.Request.Context(), userID, dest.NewSet.Name, dest.NewSet.Description)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to create set", err)
		apierr.Internal(c, "Failed to create set")
		return "", false
	}
	return set.ID, true
}

// Accept pending flashcard endpoint
func (api *API) acceptPendingFlashcard(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var dest destination
	if err := c.ShouldBindJSON(&dest); err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	if details := dest.validate(); len(details) > 0 {
		apierr.BadRequest(c, "Invalid accept request", details...)
		return
	}

	setID, ok := api.resolveDestination(c, userID, &dest)
	if !ok {
		return
	}

	card, err := api.store.PromotePendingFlashcard(c.Request.Context(), userID, c.Param("id"), setID)
	if errors.Is(err, database.ErrNotFound) {
		apierr.NotFound(c, "Pending flashcard not found")
		return
	}
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to accept pending flashcard", err)
		apierr.Internal(c, "Failed to accept pending flashcard")
		return
	}

	summary, err := api.store.GetSetSummary(c.Request.Context(), userID, setID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to load set summary", err)
		apierr.Internal(c, "Failed to accept pending flashcard")
		return
	}

	metrics.RecordFlashcardsAccepted(1)
	c.JSON(http.StatusCreated, gin.H{
		"flashcard": card,
		"set":       summary,
	})
}

type bulkAcceptRequest struct {
	PendingIDs []string `json:"pending_ids"`
	destination
}

type bulkFailure struct {
	PendingID string `json:"pending_id"`
	Error     string `json:"error"`
}

func validateBulkIDs(ids []string) []apierr.Detail {
	if len(ids) < 1 || len(ids) > models.MaxBulkIDs {
		return []apierr.Detail{{
			Field:   "pending_ids",
			Message: fmt.Sprintf("pending_ids must contain between 1 and %d ids", models.MaxBulkIDs),
		}}
	}
	return nil
}

// Bulk accept endpoint. Promotes every id it can find; missing ids are
// reported per-item instead of failing the whole batch.
func (api *API) bulkAcceptPendingFlashcards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req bulkAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	details := validateBulkIDs(req.PendingIDs)
	details = append(details, req.destination.validate()...)
	if len(details) > 0 {
		apierr.BadRequest(c, "Invalid bulk accept request", details...)
		return
	}

	// A batch where no id is promotable must not leave a freshly created
	// new_set behind, so existence is checked before the destination.
	pending, err := api.store.ListPendingFlashcards(c.Request.Context(), userID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to list pending flashcards", err)
		apierr.Internal(c, "Failed to accept pending flashcards")
		return
	}
	existing := make(map[string]struct{}, len(pending))
	for _, p := range pending {
		existing[p.ID] = struct{}{}
	}
	anyFound := false
	for _, id := range req.PendingIDs {
		if _, ok := existing[id]; ok {
			anyFound = true
			break
		}
	}
	if !anyFound {
		apierr.NotFound(c, "None of the requested pending flashcards were found")
		return
	}

	setID, ok := api.resolveDestination(c, userID, &req.destination)
	if !ok {
		return
	}

	flashcards, notFound, err := api.store.PromoteManyPendingFlashcards(c.Request.Context(), userID, req.PendingIDs, setID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to bulk accept pending flashcards", err)
		apierr.Internal(c, "Failed to accept pending flashcards")
		return
	}

	if len(flashcards) == 0 {
		apierr.NotFound(c, "None of the requested pending flashcards were found")
		return
	}

	summary, err := api.store.GetSetSummary(c.Request.Context(), userID, setID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to load set summary", err)
		apierr.Internal(c, "Failed to accept pending flashcards")
		return
	}

	failed := []bulkFailure{}
	for _, id := range notFound {
		failed = append(failed, bulkFailure{PendingID: id, Error: "pending flashcard not found"})
	}

	metrics.RecordFlashcardsAccepted(len(flashcards))
	c.JSON(http.StatusCreated, gin.H{
		"flashcards":     flashcards,
		"set":            summary,
		"accepted_count": len(flashcards),
		"failed":         failed,
	})
}

type bulkDeleteRequest struct {
	PendingIDs []string `json:"pending_ids"`
}

// Bulk delete endpoint. Ids that do not exist or belong to someone else
// are silently excluded from the result.
func (api *API) bulkDeletePendingFlashcards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	if details := validateBulkIDs(req.PendingIDs); len(details) > 0 {
		apierr.BadRequest(c, "Invalid bulk delete request", details...)
		return
	}

	deleted, err := api.store.DeleteManyPendingFlashcards(c.Request.Context(), userID, req.PendingIDs)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to bulk delete pending flashcards", err)
		apierr.Internal(c, "Failed to delete pending flashcards")
		return
	}

	metrics.RecordFlashcardsRejected(len(deleted))
	c.JSON(http.StatusOK, gin.H{
		"deleted_count": len(deleted),
		"deleted_ids":   deleted,
	})
}
