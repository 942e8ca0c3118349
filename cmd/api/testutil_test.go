package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mzurek/cardsmith/internal/config"
	"github.com/mzurek/cardsmith/internal/database"
	"github.com/mzurek/cardsmith/internal/generation"
	"github.com/mzurek/cardsmith/internal/logging"
	"github.com/mzurek/cardsmith/internal/middleware"
	"github.com/mzurek/cardsmith/pkg/models"
)

// memStore is an in-memory store used by handler tests. When failWith is
// set every method returns that error.
type memStore struct {
	mu       sync.Mutex
	pending  map[string]models.PendingFlashcard
	sets     map[string]models.Set
	cards    map[string]models.Flashcard
	users    map[string]models.User
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		pending: map[string]models.PendingFlashcard{},
		sets:    map[string]models.Set{},
		cards:   map[string]models.Flashcard{},
		users:   map[string]models.User{},
	}
}

func (m *memStore) addPending(userID, front, back string) models.PendingFlashcard {
	m.mu.Lock()
	defer m.mu.Unlock()

	pf := models.PendingFlashcard{
		ID:         uuid.New().String(),
		UserID:     userID,
		FrontDraft: front,
		BackDraft:  back,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.pending[pf.ID] = pf
	return pf
}

func (m *memStore) addSet(userID, name string) models.Set {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := models.Set{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.sets[set.ID] = set
	return set
}

func (m *memStore) CreatePendingFlashcards(ctx context.Context, userID string, candidates []models.Candidate) ([]models.PendingFlashcard, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if len(candidates) == 0 {
		return nil, database.ErrNoRowsInserted
	}

	saved := make([]models.PendingFlashcard, 0, len(candidates))
	for _, candidate := range candidates {
		saved = append(saved, m.addPending(userID, candidate.Front, candidate.Back))
	}
	return saved, nil
}

func (m *memStore) ListPendingFlashcards(ctx context.Context, userID string) ([]models.PendingFlashcard, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.PendingFlashcard{}
	for _, pf := range m.pending {
		if pf.UserID == userID {
			out = append(out, pf)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) CountPendingFlashcards(ctx context.Context, userID string) (int, error) {
	pending, err := m.ListPendingFlashcards(ctx, userID)
	return len(pending), err
}

func (m *memStore) UpdatePendingFlashcard(ctx context.Context, userID, id string, frontDraft, backDraft *string) (*models.PendingFlashcard, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	pf, ok := m.pending[id]
	if !ok || pf.UserID != userID {
		return nil, database.ErrNotFound
	}
	if frontDraft != nil {
		pf.FrontDraft = *frontDraft
	}
	if backDraft != nil {
		pf.BackDraft = *backDraft
	}
	pf.UpdatedAt = time.Now()
	m.pending[id] = pf
	return &pf, nil
}

func (m *memStore) DeletePendingFlashcard(ctx context.Context, userID, id string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	pf, ok := m.pending[id]
	if !ok || pf.UserID != userID {
		return database.ErrNotFound
	}
	delete(m.pending, id)
	return nil
}

func (m *memStore) DeleteManyPendingFlashcards(ctx context.Context, userID string, ids []string) ([]string, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := []string{}
	for _, id := range ids {
		if pf, ok := m.pending[id]; ok && pf.UserID == userID {
			delete(m.pending, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (m *memStore) promote(userID, pendingID, setID string) (*models.Flashcard, bool) {
	pf, ok := m.pending[pendingID]
	if !ok || pf.UserID != userID {
		return nil, false
	}
	delete(m.pending, pendingID)

	card := models.Flashcard{
		ID:        uuid.New().String(),
		SetID:     setID,
		UserID:    userID,
		Front:     pf.FrontDraft,
		Back:      pf.BackDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.cards[card.ID] = card
	return &card, true
}

func (m *memStore) PromotePendingFlashcard(ctx context.Context, userID, pendingID, setID string) (*models.Flashcard, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	card, ok := m.promote(userID, pendingID, setID)
	if !ok {
		return nil, database.ErrNotFound
	}
	return card, nil
}

func (m *memStore) PromoteManyPendingFlashcards(ctx context.Context, userID string, pendingIDs []string, setID string) ([]models.Flashcard, []string, error) {
	if m.failWith != nil {
		return nil, nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	flashcards := []models.Flashcard{}
	notFound := []string{}
	for _, id := range pendingIDs {
		if card, ok := m.promote(userID, id, setID); ok {
			flashcards = append(flashcards, *card)
		} else {
			notFound = append(notFound, id)
		}
	}
	return flashcards, notFound, nil
}

func (m *memStore) CreateSet(ctx context.Context, userID, name string, description *string) (*models.Set, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	set := m.addSet(userID, name)
	set.Description = description
	m.mu.Lock()
	m.sets[set.ID] = set
	m.mu.Unlock()
	return &set, nil
}

func (m *memStore) GetSet(ctx context.Context, userID, id string) (*models.Set, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[id]
	if !ok || set.UserID != userID {
		return nil, database.ErrNotFound
	}
	return &set, nil
}

func (m *memStore) ListSets(ctx context.Context, userID string) ([]models.SetListItem, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items := []models.SetListItem{}
	for _, set := range m.sets {
		if set.UserID != userID {
			continue
		}
		items = append(items, models.SetListItem{
			ID:             set.ID,
			Name:           set.Name,
			Description:    set.Description,
			FlashcardCount: m.countCards(set.ID),
			CreatedAt:      set.CreatedAt,
			UpdatedAt:      set.UpdatedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *memStore) UpdateSet(ctx context.Context, userID, id string, name, description *string) (*models.Set, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[id]
	if !ok || set.UserID != userID {
		return nil, database.ErrNotFound
	}
	if name != nil {
		set.Name = *name
	}
	if description != nil {
		set.Description = description
	}
	set.UpdatedAt = time.Now()
	m.sets[id] = set
	return &set, nil
}

func (m *memStore) DeleteSet(ctx context.Context, userID, id string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[id]
	if !ok || set.UserID != userID {
		return database.ErrNotFound
	}
	delete(m.sets, id)
	for cardID, card := range m.cards {
		if card.SetID == id {
			delete(m.cards, cardID)
		}
	}
	return nil
}

func (m *memStore) countCards(setID string) int {
	count := 0
	for _, card := range m.cards {
		if card.SetID == setID {
			count++
		}
	}
	return count
}

func (m *memStore) GetSetSummary(ctx context.Context, userID, id string) (*models.SetSummary, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[id]
	if !ok || set.UserID != userID {
		return nil, database.ErrNotFound
	}
	return &models.SetSummary{ID: set.ID, Name: set.Name, FlashcardCount: m.countCards(id)}, nil
}

func (m *memStore) ListFlashcardsBySet(ctx context.Context, userID, setID string) ([]models.Flashcard, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cards := []models.Flashcard{}
	for _, card := range m.cards {
		if card.SetID == setID && card.UserID == userID {
			cards = append(cards, card)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].ID < cards[j].ID })
	return cards, nil
}

func (m *memStore) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[email]; exists {
		return nil, database.ErrEmailTaken
	}
	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[email] = user
	return &user, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[email]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &user, nil
}

// fakeGenerator returns a canned result or error.
type fakeGenerator struct {
	result *generation.Result
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, sourceText, hint string) (*generation.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeQuota reports a fixed used count against a fixed limit.
type fakeQuota struct {
	limit int
	used  int
	err   error
}

func (f *fakeQuota) Limit() int { return f.limit }

func (f *fakeQuota) UsedToday(ctx context.Context, userID string) (int, error) {
	return f.used, f.err
}

func (f *fakeQuota) Status(ctx context.Context, userID string) (*models.QuotaStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	remaining := f.limit - f.used
	if remaining < 0 {
		remaining = 0
	}
	return &models.QuotaStatus{
		DailyLimit: f.limit,
		UsedToday:  f.used,
		Remaining:  remaining,
		ResetsAt:   time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC),
	}, nil
}

// fakeAnalytics records calls for assertions.
type fakeAnalytics struct {
	mu    sync.Mutex
	calls []models.GenerationMetadata
}

func (f *fakeAnalytics) RecordAsync(userID string, meta models.GenerationMetadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, meta)
}

func (f *fakeAnalytics) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeHealth struct{ err error }

func (f *fakeHealth) Health(ctx context.Context) error { return f.err }

const (
	testJWTSecret = "handler-test-secret"
	testUserID    = "user-1"
)

type testEnv struct {
	router    *gin.Engine
	api       *API
	store     *memStore
	generator *fakeGenerator
	quota     *fakeQuota
	analytics *fakeAnalytics
	token     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, err := logging.NewDefaultLogger()
	require.NoError(t, err)

	env := &testEnv{
		store:     newMemStore(),
		generator: &fakeGenerator{},
		quota:     &fakeQuota{limit: 10},
		analytics: &fakeAnalytics{},
	}

	env.api = &API{
		store:     env.store,
		generator: env.generator,
		quota:     env.quota,
		analytics: env.analytics,
		db:        &fakeHealth{},
		logger:    logger,
		jwtSecret: testJWTSecret,
		tokenTTL:  time.Hour,
	}

	cfg := &config.Config{}
	cfg.RateLimit.RPS = 1000
	cfg.RateLimit.Burst = 1000

	env.router = setupRouter(env.api, cfg)

	env.token, err = middleware.GenerateToken(testJWTSecret, testUserID, "user@example.com", time.Hour)
	require.NoError(t, err)

	return env
}

// do issues an authenticated request against the test router.
func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// doAnon issues a request without credentials.
func (env *testEnv) doAnon(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			ID   string `json:"id"`
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeJSON(t, w, &body)
	require.NotEmpty(t, body.Error.ID)
	return body.Error.Code
}
