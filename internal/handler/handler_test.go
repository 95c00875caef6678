package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/easeaico/liveroom/internal/chat"
	"github.com/easeaico/liveroom/internal/storage"
	"github.com/easeaico/liveroom/internal/types"
	"github.com/easeaico/liveroom/internal/usage"
)

type stubCompleter struct {
	reply string
}

func (s *stubCompleter) Complete(ctx context.Context, systemPrompt string, turns []types.Turn) (string, error) {
	return s.reply, nil
}

type stubImages struct{}

func (stubImages) Generate(ctx context.Context, prompt string) (string, error) {
	return "data:image/png;base64,AAAA", nil
}

type testServer struct {
	router *gin.Engine
	store  *storage.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := storage.NewStoreFromDB(db)
	require.NoError(t, store.Migrate(context.Background()))

	gate := usage.NewGate(store.Accounts, store.Accounts)
	router := NewRouter(Deps{
		Characters: store.Characters,
		Chat: chat.NewService(chat.Options{
			Conversations: store.Conversations,
			Characters:    store.Characters,
			Gate:          gate,
			Completer:     &stubCompleter{reply: "hey there"},
		}),
		Images: chat.NewImageService(store.Characters, gate, stubImages{}, nil),
		Usage:  gate,
		Health: store,
	})
	return &testServer{router: router, store: store}
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, userID int) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set(userIDHeader, fmt.Sprint(userID))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) seedCharacter(t *testing.T, personaKey string) int {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/categories", gin.H{"name": "Romantic"}, 0)
	require.Equal(t, http.StatusCreated, code)
	var category types.Category
	require.NoError(t, json.Unmarshal(env.Data, &category))

	code, env = s.do(t, http.MethodPost, "/api/v1/characters", gin.H{"persona_key": personaKey, "category_id": category.ID}, 0)
	require.Equal(t, http.StatusCreated, code)
	var character types.Character
	require.NoError(t, json.Unmarshal(env.Data, &character))
	return character.ID
}

func TestHealthzAndRequestID(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "req-123", w.Header().Get(requestIDHeader))
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.Equal(t, "req-123", env.RequestID)

	code, env := srv.do(t, http.MethodGet, "/healthz", nil, 0)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, env.RequestID)
}

func TestPersonaAndMoodCatalogs(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(t, http.MethodGet, "/api/v1/personas", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var personas []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &personas))
	require.Len(t, personas, 10)

	code, env = srv.do(t, http.MethodGet, "/api/v1/personas/LUNA", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var luna map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &luna))
	require.Equal(t, "Luna", luna["name"])

	code, env = srv.do(t, http.MethodGet, "/api/v1/personas/nobody", nil, 0)
	require.Equal(t, http.StatusNotFound, code)
	require.False(t, env.Success)
	require.Equal(t, "not_found", env.Error.Code)

	code, env = srv.do(t, http.MethodGet, "/api/v1/moods", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var moods []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &moods))
	require.NotEmpty(t, moods)
}

func TestCharacterLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seedCharacter(t, "luna")

	code, env := srv.do(t, http.MethodPost, "/api/v1/categories", gin.H{"name": "Romantic"}, 0)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "invalid", env.Error.Code)

	code, _ = srv.do(t, http.MethodPost, "/api/v1/categories", gin.H{"name": "Odd", "category_type": "weekly"}, 0)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.do(t, http.MethodPost, "/api/v1/characters", gin.H{"persona_key": "nobody", "category_id": 1}, 0)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = srv.do(t, http.MethodPost, "/api/v1/characters", gin.H{"persona_key": "luna", "category_id": 99}, 0)
	require.Equal(t, http.StatusNotFound, code)

	code, env = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/characters/%d", id), nil, 0)
	require.Equal(t, http.StatusOK, code)
	var character types.Character
	require.NoError(t, json.Unmarshal(env.Data, &character))
	require.Equal(t, "luna", character.PersonaKey)

	code, env = srv.do(t, http.MethodGet, "/api/v1/categories/1/characters", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var listed []types.Character
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/characters?category_id=abc", nil, 0)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/characters/%d", id), nil, 0)
	require.Equal(t, http.StatusOK, code)

	code, _ = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/characters/%d", id), nil, 0)
	require.Equal(t, http.StatusNotFound, code)

	code, env = srv.do(t, http.MethodGet, "/api/v1/characters", nil, 0)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Empty(t, listed)
}

func TestCreateCharacterAvatars(t *testing.T) {
	srv := newTestServer(t)
	code, env := srv.do(t, http.MethodPost, "/api/v1/categories", gin.H{"name": "Romantic"}, 0)
	require.Equal(t, http.StatusCreated, code)
	var category types.Category
	require.NoError(t, json.Unmarshal(env.Data, &category))

	code, env = srv.do(t, http.MethodPost, "/api/v1/characters", gin.H{"persona_key": "luna", "category_id": category.ID}, 0)
	require.Equal(t, http.StatusCreated, code)
	var character types.Character
	require.NoError(t, json.Unmarshal(env.Data, &character))
	require.Len(t, character.AvatarURLs, 3)

	code, env = srv.do(t, http.MethodPost, "/api/v1/characters", gin.H{
		"persona_key": "maya",
		"category_id": category.ID,
		"avatar_urls": []string{"/assets/maya.png"},
	}, 0)
	require.Equal(t, http.StatusCreated, code)
	require.NoError(t, json.Unmarshal(env.Data, &character))
	require.Equal(t, []string{"/assets/maya.png"}, character.AvatarURLs)
}

func TestCategoryBrowsing(t *testing.T) {
	srv := newTestServer(t)
	id := srv.seedCharacter(t, "isabella")

	code, env := srv.do(t, http.MethodPost, "/api/v1/categories", gin.H{"name": "Hot Now", "category_type": "trending"}, 0)
	require.Equal(t, http.StatusCreated, code)
	var trending types.Category
	require.NoError(t, json.Unmarshal(env.Data, &trending))

	code, env = srv.do(t, http.MethodGet, "/api/v1/categories/1", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var withCharacters types.CategoryWithCharacters
	require.NoError(t, json.Unmarshal(env.Data, &withCharacters))
	require.Equal(t, "Romantic", withCharacters.Name)
	require.Len(t, withCharacters.Characters, 1)
	require.Equal(t, id, withCharacters.Characters[0].ID)

	code, env = srv.do(t, http.MethodGet, "/api/v1/categories/type/trending", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var listed []types.Category
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	require.Equal(t, trending.ID, listed[0].ID)

	code, env = srv.do(t, http.MethodGet, "/api/v1/categories?category_type=general", nil, 0)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	require.Equal(t, "Romantic", listed[0].Name)

	code, env = srv.do(t, http.MethodGet, "/api/v1/categories", nil, 0)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 2)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/categories/404", nil, 0)
	require.Equal(t, http.StatusNotFound, code)
}

func TestSubcategoryBrowsing(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	srv.seedCharacter(t, "isabella")

	vampires, _, err := srv.store.Characters.EnsureSubcategory(ctx, types.Subcategory{Name: "vampires", SortOrder: 1, CategoryID: 1, IsActive: true})
	require.NoError(t, err)
	_, _, err = srv.store.Characters.EnsureSubcategory(ctx, types.Subcategory{Name: "witches", SortOrder: 2, CategoryID: 1, IsActive: true})
	require.NoError(t, err)

	code, env := srv.do(t, http.MethodGet, "/api/v1/subcategories?category_id=1", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var subs []types.Subcategory
	require.NoError(t, json.Unmarshal(env.Data, &subs))
	require.Len(t, subs, 2)
	require.Equal(t, "vampires", subs[0].Name)

	code, env = srv.do(t, http.MethodGet, "/api/v1/subcategories/category/1", nil, 0)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &subs))
	require.Len(t, subs, 2)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/subcategories/category/77", nil, 0)
	require.Equal(t, http.StatusNotFound, code)

	code, env = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/subcategories/%d", vampires.ID), nil, 0)
	require.Equal(t, http.StatusOK, code)
	var sub types.Subcategory
	require.NoError(t, json.Unmarshal(env.Data, &sub))
	require.Equal(t, "vampires", sub.Name)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/subcategories/999", nil, 0)
	require.Equal(t, http.StatusNotFound, code)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/subcategories?category_id=x", nil, 0)
	require.Equal(t, http.StatusBadRequest, code)

	code, env = srv.do(t, http.MethodPost, "/api/v1/characters", gin.H{
		"persona_key":    "zara",
		"category_id":    1,
		"subcategory_id": vampires.ID,
	}, 0)
	require.Equal(t, http.StatusCreated, code)
	var character types.Character
	require.NoError(t, json.Unmarshal(env.Data, &character))
	require.Equal(t, vampires.ID, character.SubcategoryID)

	code, env = srv.do(t, http.MethodPost, "/api/v1/categories", gin.H{"name": "Confessions"}, 0)
	require.Equal(t, http.StatusCreated, code)
	var other types.Category
	require.NoError(t, json.Unmarshal(env.Data, &other))

	code, _ = srv.do(t, http.MethodPost, "/api/v1/characters", gin.H{
		"persona_key":    "zara",
		"category_id":    other.ID,
		"subcategory_id": vampires.ID,
	}, 0)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestChatFlow(t *testing.T) {
	srv := newTestServer(t)
	characterID := srv.seedCharacter(t, "luna")

	code, env := srv.do(t, http.MethodPost, "/api/v1/conversations", gin.H{"character_id": characterID}, 0)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "invalid", env.Error.Code)

	code, env = srv.do(t, http.MethodPost, "/api/v1/conversations", gin.H{"character_id": characterID}, 42)
	require.Equal(t, http.StatusCreated, code)
	var conv types.Conversation
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	require.Equal(t, "Chat with Luna", conv.Title)

	code, env = srv.do(t, http.MethodPost, "/api/v1/chat/message", gin.H{
		"conversation_id": conv.ID,
		"message":         "hi Luna",
		"mood":            "romantic",
	}, 42)
	require.Equal(t, http.StatusOK, code)
	var reply chat.Reply
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	require.Equal(t, "hey there", reply.Text)
	require.Equal(t, "romantic", reply.Mood.Key)
	require.False(t, reply.Fallback)

	code, env = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil, 42)
	require.Equal(t, http.StatusOK, code)
	var full types.ConversationWithMessages
	require.NoError(t, json.Unmarshal(env.Data, &full))
	require.Len(t, full.Messages, 2)
	require.Equal(t, types.SenderUser, full.Messages[0].Sender)
	require.Equal(t, types.SenderCharacter, full.Messages[1].Sender)

	code, _ = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d", conv.ID), nil, 7)
	require.Equal(t, http.StatusNotFound, code)

	code, env = srv.do(t, http.MethodGet, "/api/v1/conversations", nil, 42)
	require.Equal(t, http.StatusOK, code)
	var convs []types.Conversation
	require.NoError(t, json.Unmarshal(env.Data, &convs))
	require.Len(t, convs, 1)

	code, _ = srv.do(t, http.MethodPost, "/api/v1/chat/message", gin.H{"conversation_id": conv.ID, "message": "  "}, 42)
	require.Equal(t, http.StatusBadRequest, code)

	code, env = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/characters/%d/mood", characterID), nil, 0)
	require.Equal(t, http.StatusOK, code)
	var status chat.MoodStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	require.NotEmpty(t, status.Current.Key)
	require.NotEmpty(t, status.Weights)
}

func TestFreePlanMessageQuota(t *testing.T) {
	srv := newTestServer(t)
	characterID := srv.seedCharacter(t, "sophia")

	for i := 0; i < 20; i++ {
		code, _ := srv.do(t, http.MethodPost, "/api/v1/chat/message", gin.H{"character_id": characterID, "message": "hello"}, 42)
		require.Equal(t, http.StatusOK, code, "message %d", i+1)
	}

	code, env := srv.do(t, http.MethodPost, "/api/v1/chat/message", gin.H{"character_id": characterID, "message": "hello"}, 42)
	require.Equal(t, http.StatusPaymentRequired, code)
	require.Equal(t, "quota_exceeded", env.Error.Code)

	code, env = srv.do(t, http.MethodGet, "/api/v1/usage", nil, 42)
	require.Equal(t, http.StatusOK, code)
	var report usage.Report
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Equal(t, types.PlanFree, report.Plan)
	require.Equal(t, 20, report.Messages.Used)
	require.False(t, report.Messages.Allowed)
}

func TestImagesRequirePaidPlan(t *testing.T) {
	srv := newTestServer(t)
	characterID := srv.seedCharacter(t, "aria")
	path := fmt.Sprintf("/api/v1/characters/%d/images", characterID)

	code, env := srv.do(t, http.MethodPost, path, gin.H{"prompt": "at the beach"}, 42)
	require.Equal(t, http.StatusPaymentRequired, code)
	require.Equal(t, "quota_exceeded", env.Error.Code)

	code, _ = srv.do(t, http.MethodPost, "/api/v1/subscription", gin.H{"plan": "basic"}, 42)
	require.Equal(t, http.StatusBadRequest, code)
	code, _ = srv.do(t, http.MethodPost, "/api/v1/subscription", gin.H{"plan": "free", "payment_id": "pay_1"}, 42)
	require.Equal(t, http.StatusBadRequest, code)
	code, _ = srv.do(t, http.MethodPost, "/api/v1/subscription", gin.H{"plan": "platinum", "payment_id": "pay_1"}, 42)
	require.Equal(t, http.StatusNotFound, code)

	code, env = srv.do(t, http.MethodPost, "/api/v1/subscription", gin.H{"plan": "Basic", "payment_id": "pay_1"}, 42)
	require.Equal(t, http.StatusOK, code)
	var upgraded usage.UpgradeResult
	require.NoError(t, json.Unmarshal(env.Data, &upgraded))
	require.Equal(t, types.PlanBasic, upgraded.Plan)

	code, env = srv.do(t, http.MethodPost, path, gin.H{"prompt": "at the beach", "style": "anime"}, 42)
	require.Equal(t, http.StatusOK, code)
	var result chat.ImageResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, "data:image/png;base64,AAAA", result.URL)
	require.Equal(t, "anime", result.Style)

	code, _ = srv.do(t, http.MethodPost, path, gin.H{"prompt": ""}, 42)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestPlansAndStats(t *testing.T) {
	srv := newTestServer(t)

	code, env := srv.do(t, http.MethodGet, "/api/v1/plans", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var plans []usage.Plan
	require.NoError(t, json.Unmarshal(env.Data, &plans))
	require.Len(t, plans, 3)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/usage", nil, 0)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.do(t, http.MethodGet, "/api/v1/usage", nil, 1)
	require.Equal(t, http.StatusOK, code)
	code, _ = srv.do(t, http.MethodPost, "/api/v1/subscription", gin.H{"plan": "pro", "payment_id": "pay_2"}, 2)
	require.Equal(t, http.StatusOK, code)

	code, env = srv.do(t, http.MethodGet, "/api/v1/stats", nil, 0)
	require.Equal(t, http.StatusOK, code)
	var stats usage.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	require.EqualValues(t, 2, stats.TotalUsers)
	require.EqualValues(t, 1, stats.ProUsers)
	require.InDelta(t, 499.0, stats.MonthlyRevenue, 0.001)
}

func TestStatusForKinds(t *testing.T) {
	require.Equal(t, http.StatusNotFound, statusFor("not_found"))
	require.Equal(t, http.StatusPaymentRequired, statusFor("quota_exceeded"))
	require.Equal(t, http.StatusBadRequest, statusFor("invalid"))
	require.Equal(t, http.StatusBadGateway, statusFor("provider_failure"))
	require.Equal(t, http.StatusInternalServerError, statusFor("internal"))
}
