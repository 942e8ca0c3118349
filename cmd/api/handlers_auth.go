package main

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/mzurek/cardsmith/internal/apierr"
	"github.com/mzurek/cardsmith/internal/database"
	"github.com/mzurek/cardsmith/internal/middleware"
	"github.com/mzurek/cardsmith/pkg/models"
)

const passwordMinLen = 8

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func validateCredentials(req *credentialsRequest) []apierr.Detail {
	details := []apierr.Detail{}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		details = append(details, apierr.Detail{Field: "email", Message: "email must be a valid address"})
	}

	if utf8.RuneCountInString(req.Password) < passwordMinLen {
		details = append(details, apierr.Detail{Field: "password", Message: "password must be at least 8 characters"})
	}

	return details
}

// Register endpoint
func (api *API) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	if details := validateCredentials(&req); len(details) > 0 {
		apierr.BadRequest(c, "Invalid registration data", details...)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.logger.ErrorWithErr("failed to hash password", err)
		apierr.Internal(c, "Failed to create account")
		return
	}

	user, err := api.store.CreateUser(c.Request.Context(), req.Email, string(hash))
	if errors.Is(err, database.ErrEmailTaken) {
		apierr.BadRequest(c, "An account with this email already exists")
		return
	}
	if err != nil {
		api.logger.ErrorWithErr("failed to create user", err)
		apierr.Internal(c, "Failed to create account")
		return
	}

	token, err := middleware.GenerateToken(api.jwtSecret, user.ID, user.Email, api.tokenTTL)
	if err != nil {
		api.logger.ErrorWithErr("failed to sign token", err)
		apierr.Internal(c, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

// Login endpoint
func (api *API) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := api.store.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, database.ErrNotFound) {
		apierr.Unauthorized(c, "Invalid email or password")
		return
	}
	if err != nil {
		api.logger.ErrorWithErr("failed to look up user", err)
		apierr.Internal(c, "Failed to log in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		apierr.Unauthorized(c, "Invalid email or password")
		return
	}

	token, err := middleware.GenerateToken(api.jwtSecret, user.ID, user.Email, api.tokenTTL)
	if err != nil {
		api.logger.ErrorWithErr("failed to sign token", err)
		apierr.Internal(c, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Logout endpoint. Tokens are stateless, so logout is a client-side
// operation; the endpoint exists so clients have a uniform flow.
func (api *API) logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
