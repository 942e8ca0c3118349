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
	"github.com/mzurek/cardsmith/pkg/models"
)

type setRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r *setRequest) validate(nameRequired bool) []apierr.Detail {
	details := []apierr.Detail{}

	if r.Name == nil {
		if nameRequired {
			details = append(details, apierr.Detail{Field: "name", Message: "name is required"})
		}
	} else {
		trimmed := strings.TrimSpace(*r.Name)
		if n := utf8.RuneCountInString(trimmed); n < models.SetNameMinLen || n > models.SetNameMaxLen {
			details = append(details, apierr.Detail{
				Field:   "name",
				Message: fmt.Sprintf("name must be between %d and %d characters", models.SetNameMinLen, models.SetNameMaxLen),
			})
		}
		r.Name = &trimmed
	}

	if r.Description != nil && utf8.RuneCountInString(*r.Description) > models.SetDescriptionMaxLen {
		details = append(details, apierr.Detail{
			Field:   "description",
			Message: fmt.Sprintf("description must not exceed %d characters", models.SetDescriptionMaxLen),
		})
	}

	return details
}

// List sets endpoint
func (api *API) listSets(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sets, err := api.store.ListSets(c.Request.Context(), userID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to list sets", err)
		apierr.Internal(c, "Failed to list sets")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sets})
}

// Create set endpoint
func (api *API) createSet(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	if details := req.validate(true); len(details) > 0 {
		apierr.BadRequest(c, "Invalid set", details...)
		return
	}

	set, err := api.store.CreateSet(c.Request.Context(), userID, *req.Name, req.Description)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to create set", err)
		apierr.Internal(c, "Failed to create set")
		return
	}

	c.JSON(http.StatusCreated, set)
}

// Get set endpoint
func (api *API) getSet(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	set, err := api.store.GetSet(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		apierr.NotFound(c, "Set not found")
		return
	}
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to get set", err)
		apierr.Internal(c, "Failed to get set")
		return
	}

	c.JSON(http.StatusOK, set)
}

// Update set endpoint
func (api *API) updateSet(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req setRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	if req.Name == nil && req.Description == nil {
		apierr.BadRequest(c, "Invalid set update",
			apierr.Detail{Field: "name", Message: "at least one of name or description is required"})
		return
	}

	if details := req.validate(false); len(details) > 0 {
		apierr.BadRequest(c, "Invalid set update", details...)
		return
	}

	set, err := api.store.UpdateSet(c.Request.Context(), userID, c.Param("id"), req.Name, req.Description)
	if errors.Is(err, database.ErrNotFound) {
		apierr.NotFound(c, "Set not found")
		return
	}
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to update set", err)
		apierr.Internal(c, "Failed to update set")
		return
	}

	c.JSON(http.StatusOK, set)
}

// Delete set endpoint. Flashcards inside the set are deleted with it.
func (api *API) deleteSet(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	err := api.store.DeleteSet(c.Request.Context(), userID, c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		apierr.NotFound(c, "Set not found")
		return
	}
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to delete set", err)
		apierr.Internal(c, "Failed to delete set")
		return
	}

	c.Status(http.StatusNoContent)
}

// List flashcards in a set endpoint
func (api *API) listSetFlashcards(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	setID := c.Param("id")

	// Confirm the set exists before listing, so a foreign or missing set
	// id is a 404 rather than an empty list.
	if _, err := api.store.GetSet(c.Request.Context(), userID, setID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			apierr.NotFound(c, "Set not found")
			return
		}
		api.logger.WithUserID(userID).ErrorWithErr("failed to get set", err)
		apierr.Internal(c, "Failed to list flashcards")
		return
	}

	flashcards, err := api.store.ListFlashcardsBySet(c.Request.Context(), userID, setID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to list flashcards", err)
		apierr.Internal(c, "Failed to list flashcards")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": flashcards})
}
