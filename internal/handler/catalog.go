package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/persona"
	"github.com/easeaico/liveroom/internal/types"
)

func (h *Handler) listPersonas(c *gin.Context) {
	keys := h.personas.Keys()
	out := make([]persona.Persona, 0, len(keys))
	for _, key := range keys {
		if p, found := h.personas.Get(key); found {
			out = append(out, p)
		}
	}
	ok(c, out)
}

func (h *Handler) getPersona(c *gin.Context) {
	p, found := h.personas.Get(c.Param("key"))
	if !found {
		fail(c, apperr.NotFound("persona %q not found", c.Param("key")))
		return
	}
	ok(c, p)
}

func (h *Handler) listMoods(c *gin.Context) {
	ok(c, h.moods.All())
}

func (h *Handler) listCategories(c *gin.Context) {
	var (
		categories []types.Category
		err        error
	)
	if kind := strings.TrimSpace(c.Query("category_type")); kind != "" {
		categories, err = h.characters.ListCategoriesByType(c.Request.Context(), kind)
	} else {
		categories, err = h.characters.ListCategories(c.Request.Context())
	}
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, categories)
}

func (h *Handler) listCategoriesByType(c *gin.Context) {
	categories, err := h.characters.ListCategoriesByType(c.Request.Context(), c.Param("type"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, categories)
}

// activeCategory hides deactivated categories behind a not_found error.
func (h *Handler) activeCategory(ctx context.Context, id int) (*types.Category, error) {
	category, err := h.characters.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, apperr.NotFound("category %d not found", id)
	}
	return category, nil
}

func (h *Handler) getCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	category, err := h.activeCategory(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	characters, err := h.characters.ListCharacters(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, types.CategoryWithCharacters{Category: *category, Characters: characters})
}

type createCategoryRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	SortOrder    int    `json:"sort_order"`
	CategoryType string `json:"category_type"`
}

func (h *Handler) createCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fail(c, apperr.Invalid("name is required"))
		return
	}
	kind := strings.ToLower(strings.TrimSpace(req.CategoryType))
	switch kind {
	case "":
		kind = types.CategoryTypeGeneral
	case types.CategoryTypeGeneral, types.CategoryTypeTrending, types.CategoryTypeLatest:
	default:
		fail(c, apperr.Invalid("unknown category_type %q", req.CategoryType))
		return
	}

	category := &types.Category{
		Name:         name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		SortOrder:    req.SortOrder,
		CategoryType: kind,
		IsActive:     true,
	}
	if err := h.characters.CreateCategory(c.Request.Context(), category); err != nil {
		fail(c, err)
		return
	}
	created(c, category, "category created")
}

func (h *Handler) listCategoryCharacters(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.characters.GetCategory(ctx, id); err != nil {
		fail(c, err)
		return
	}
	characters, err := h.characters.ListCharacters(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, characters)
}

func (h *Handler) listSubcategories(c *gin.Context) {
	categoryID, err := queryID(c, "category_id")
	if err != nil {
		fail(c, err)
		return
	}
	subcategories, err := h.characters.ListSubcategories(c.Request.Context(), categoryID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, subcategories)
}

func (h *Handler) getSubcategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	subcategory, err := h.characters.GetSubcategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, subcategory)
}

func (h *Handler) listCategorySubcategories(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.activeCategory(ctx, id); err != nil {
		fail(c, err)
		return
	}
	subcategories, err := h.characters.ListSubcategories(ctx, id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, subcategories)
}

func (h *Handler) listCharacters(c *gin.Context) {
	categoryID, err := queryID(c, "category_id")
	if err != nil {
		fail(c, err)
		return
	}
	characters, err := h.characters.ListCharacters(c.Request.Context(), categoryID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, characters)
}

type createCharacterRequest struct {
	PersonaKey    string   `json:"persona_key"`
	CategoryID    int      `json:"category_id"`
	SubcategoryID int      `json:"subcategory_id"`
	AvatarURLs    []string `json:"avatar_urls"`
}

func (h *Handler) createCharacter(c *gin.Context) {
	var req createCharacterRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if req.CategoryID <= 0 {
		fail(c, apperr.Invalid("category_id is required"))
		return
	}
	p, found := h.personas.Get(req.PersonaKey)
	if !found {
		fail(c, apperr.NotFound("persona %q not found", req.PersonaKey))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.characters.GetCategory(ctx, req.CategoryID); err != nil {
		fail(c, err)
		return
	}
	if req.SubcategoryID > 0 {
		sub, err := h.characters.GetSubcategory(ctx, req.SubcategoryID)
		if err != nil {
			fail(c, err)
			return
		}
		if sub.CategoryID != req.CategoryID {
			fail(c, apperr.Invalid("subcategory %d does not belong to category %d", sub.ID, req.CategoryID))
			return
		}
	}
	character := p.NewCharacter(req.CategoryID)
	character.SubcategoryID = req.SubcategoryID
	if len(req.AvatarURLs) > 0 {
		character.AvatarURLs = req.AvatarURLs
	}
	if err := h.characters.CreateCharacter(ctx, character); err != nil {
		fail(c, err)
		return
	}
	created(c, character, "character created")
}

func (h *Handler) getCharacter(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	character, err := h.characters.GetCharacter(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !character.IsActive {
		fail(c, apperr.NotFound("character %d not found", id))
		return
	}
	ok(c, character)
}

func (h *Handler) deactivateCharacter(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.characters.DeactivateCharacter(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": id}, "character deactivated")
}
