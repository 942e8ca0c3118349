package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mzurek/cardsmith/internal/apierr"
)

// Generation quota endpoint
func (api *API) getGenerationQuota(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	status, err := api.quota.Status(c.Request.Context(), userID)
	if err != nil {
		api.logger.WithUserID(userID).ErrorWithErr("failed to check generation quota", err)
		apierr.Internal(c, "Failed to check generation quota")
		return
	}

	c.JSON(http.StatusOK, status)
}
