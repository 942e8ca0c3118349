package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mzurek/cardsmith/internal/generation"
	"github.com/mzurek/cardsmith/internal/logging"
	"github.com/mzurek/cardsmith/pkg/models"
)

// store is the persistence surface the handlers need. *database.Repository
// satisfies it; tests substitute fakes.
type store interface {
	CreatePendingFlashcards(ctx context.Context, userID string, candidates []models.Candidate) ([]models.PendingFlashcard, error)
	ListPendingFlashcards(ctx context.Context, userID string) ([]models.PendingFlashcard, error)
	CountPendingFlashcards(ctx context.Context, userID string) (int, error)
	UpdatePendingFlashcard(ctx context.Context, userID, id string, frontDraft, backDraft *string) (*models.PendingFlashcard, error)
	DeletePendingFlashcard(ctx context.Context, userID, id string) error
	DeleteManyPendingFlashcards(ctx context.Context, userID string, ids []string) ([]string, error)
	PromotePendingFlashcard(ctx context.Context, userID, pendingID, setID string) (*models.Flashcard, error)
	PromoteManyPendingFlashcards(ctx context.Context, userID string, pendingIDs []string, setID string) ([]models.Flashcard, []string, error)

	CreateSet(ctx context.Context, userID, name string, description *string) (*models.Set, error)
	GetSet(ctx context.Context, userID, id string) (*models.Set, error)
	ListSets(ctx context.Context, userID string) ([]models.SetListItem, error)
	UpdateSet(ctx context.Context, userID, id string, name, description *string) (*models.Set, error)
	DeleteSet(ctx context.Context, userID, id string) error
	GetSetSummary(ctx context.Context, userID, id string) (*models.SetSummary, error)
	ListFlashcardsBySet(ctx context.Context, userID, setID string) ([]models.Flashcard, error)

	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// generator produces flashcard candidates from source text.
type generator interface {
	Generate(ctx context.Context, sourceText, hint string) (*generation.Result, error)
}

// quotaService answers daily allowance questions.
type quotaService interface {
	Limit() int
	UsedToday(ctx context.Context, userID string) (int, error)
	Status(ctx context.Context, userID string) (*models.QuotaStatus, error)
}

// analyticsRecorder persists generation usage without blocking the caller.
type analyticsRecorder interface {
	RecordAsync(userID string, meta models.GenerationMetadata)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	store     store
	generator generator
	quota     quotaService
	analytics analyticsRecorder

	db     healthChecker
	cache  pinger
	logger *logging.Logger

	jwtSecret string
	tokenTTL  time.Duration
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.db.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}

	if api.cache != nil {
		if err := api.cache.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "redis unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
