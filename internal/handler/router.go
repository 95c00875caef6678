// Package handler exposes the companion backend over HTTP.
package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/chat"
	"github.com/easeaico/liveroom/internal/mood"
	"github.com/easeaico/liveroom/internal/persona"
	"github.com/easeaico/liveroom/internal/types"
	"github.com/easeaico/liveroom/internal/usage"
)

// CharacterStore manages categories, subcategories and characters.
type CharacterStore interface {
	ListCategories(ctx context.Context) ([]types.Category, error)
	ListCategoriesByType(ctx context.Context, categoryType string) ([]types.Category, error)
	GetCategory(ctx context.Context, id int) (*types.Category, error)
	CreateCategory(ctx context.Context, category *types.Category) error
	CreateCharacter(ctx context.Context, character *types.Character) error
	GetCharacter(ctx context.Context, id int) (*types.Character, error)
	ListCharacters(ctx context.Context, categoryID int) ([]types.Character, error)
	DeactivateCharacter(ctx context.Context, id int) error
	ListSubcategories(ctx context.Context, categoryID int) ([]types.Subcategory, error)
	GetSubcategory(ctx context.Context, id int) (*types.Subcategory, error)
}

// ChatService runs conversations.
type ChatService interface {
	Send(ctx context.Context, req chat.SendRequest) (*chat.Reply, error)
	StartConversation(ctx context.Context, userID, characterID int, title string) (*types.Conversation, error)
	Conversations(ctx context.Context, userID int) ([]types.Conversation, error)
	Conversation(ctx context.Context, id, userID int) (*types.ConversationWithMessages, error)
	MoodStatus(ctx context.Context, characterID int) (*chat.MoodStatus, error)
}

// ImageService generates character pictures.
type ImageService interface {
	Generate(ctx context.Context, req chat.ImageRequest) (*chat.ImageResult, error)
}

// UsageService reports and changes subscription state.
type UsageService interface {
	Status(ctx context.Context, userID int) (usage.Report, error)
	Upgrade(ctx context.Context, userID int, planID types.PlanID, paymentID string) (usage.UpgradeResult, error)
	Plans() []usage.Plan
	Stats(ctx context.Context) (usage.Stats, error)
}

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the HTTP API.
type Deps struct {
	Personas   *persona.Registry
	Moods      *mood.Catalog
	Characters CharacterStore
	Chat       ChatService
	Images     ImageService
	Usage      UsageService
	Health     Pinger
}

// Handler serves the HTTP API.
type Handler struct {
	personas   *persona.Registry
	moods      *mood.Catalog
	characters CharacterStore
	chat       ChatService
	images     ImageService
	usage      UsageService
	health     Pinger
}

// NewHandler returns a Handler over deps.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		personas:   deps.Personas,
		moods:      deps.Moods,
		characters: deps.Characters,
		chat:       deps.Chat,
		images:     deps.Images,
		usage:      deps.Usage,
		health:     deps.Health,
	}
	if h.personas == nil {
		h.personas = persona.Default()
	}
	if h.moods == nil {
		h.moods = mood.DefaultCatalog()
	}
	return h
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog(), gin.Recovery())
	NewHandler(deps).Register(r)
	return r
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.healthz)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/personas", h.listPersonas)
		v1.GET("/personas/:key", h.getPersona)
		v1.GET("/moods", h.listMoods)

		v1.GET("/categories", h.listCategories)
		v1.POST("/categories", h.createCategory)
		v1.GET("/categories/type/:type", h.listCategoriesByType)
		v1.GET("/categories/:id", h.getCategory)
		v1.GET("/categories/:id/characters", h.listCategoryCharacters)

		v1.GET("/subcategories", h.listSubcategories)
		v1.GET("/subcategories/:id", h.getSubcategory)
		v1.GET("/subcategories/category/:id", h.listCategorySubcategories)

		v1.GET("/characters", h.listCharacters)
		v1.POST("/characters", h.createCharacter)
		v1.GET("/characters/:id", h.getCharacter)
		v1.DELETE("/characters/:id", h.deactivateCharacter)
		v1.GET("/characters/:id/mood", h.characterMood)
		v1.POST("/characters/:id/images", h.generateImage)

		v1.POST("/conversations", h.startConversation)
		v1.GET("/conversations", h.listConversations)
		v1.GET("/conversations/:id", h.getConversation)
		v1.POST("/chat/message", h.sendMessage)

		v1.GET("/plans", h.listPlans)
		v1.GET("/usage", h.usageStatus)
		v1.POST("/subscription", h.upgrade)
		v1.GET("/stats", h.stats)
	}
}

func (h *Handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			fail(c, err)
			return
		}
	}
	ok(c, gin.H{"status": "ok"})
}

const userIDHeader = "X-User-ID"

// userID reads the caller identity. Authentication happens in front of this
// service.
func userID(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.GetHeader(userIDHeader))
	if raw == "" {
		return 0, apperr.Invalid("%s header is required", userIDHeader)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("%s must be a positive integer", userIDHeader)
	}
	return id, nil
}

func pathID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("%s must be a positive integer", name)
	}
	return id, nil
}

// queryID reads an optional positive id from the query string. Zero means
// the parameter was absent.
func queryID(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("%s must be a positive integer", name)
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Invalid("invalid request body: %v", err)
	}
	return nil
}
