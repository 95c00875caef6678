package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/easeaico/liveroom/internal/persona"
	"github.com/easeaico/liveroom/internal/types"
)

// SeedCategory is a default browsing category, the persona category slug
// whose characters it holds and the subcategories beneath it.
type SeedCategory struct {
	Slug          string
	Category      types.Category
	Subcategories []SeedSubcategory
}

// SeedSubcategory is a default subcategory.
type SeedSubcategory struct {
	Name        string
	Description string
}

const seedImageURL = "/assets/avatar1.png"

// DefaultCategories are created by Seed.
var DefaultCategories = []SeedCategory{
	{
		Slug:     "romantic",
		Category: types.Category{Name: "Forbidden Desires", Description: "Seductive companions who push your boundaries.", SortOrder: 1},
		Subcategories: []SeedSubcategory{
			{"step_sisters", "Naughty step-sisters who love to tease."},
			{"teachers", "Seductive teachers with irresistible lessons."},
			{"roommates", "Playful roommates creating intimate moments."},
			{"bosses", "Powerful bosses with dominant charm."},
			{"neighbors", "Flirty neighbors next door."},
			{"ex_lovers", "Irresistible ex-lovers you can't forget."},
		},
	},
	{
		Slug:     "flirty_chat",
		Category: types.Category{Name: "Dirty Talk Queens", Description: "Masters of flirtation and irresistible chat.", SortOrder: 2},
		Subcategories: []SeedSubcategory{
			{"phone_sex", "Phone sex operators who know exactly what to say."},
			{"cam_girls", "Webcam performers who love to put on a show."},
			{"sexting", "Sexting specialists who heat up your screen."},
			{"voice_actors", "Erotic voice artists with intoxicating tones."},
			{"chat_hosts", "Chat room hosts who keep the pleasure flowing."},
			{"flirt_coaches", "Flirtation coaches who teach the art of seduction."},
		},
	},
	{
		Slug:     "mood_booster",
		Category: types.Category{Name: "Stress Relief Goddesses", Description: "Healing, calming and uplifting companions.", SortOrder: 3},
		Subcategories: []SeedSubcategory{
			{"therapists", "Sensual therapists for intimate healing."},
			{"masseuses", "Erotic masseuses to melt your stress away."},
			{"yoga_instructors", "Tantric yoga teachers to balance body and desire."},
			{"life_coaches", "Motivational goddesses who lift your spirit."},
			{"meditation_guides", "Mindfulness mistresses to calm your mind."},
			{"wellness_experts", "Holistic healers for total relaxation."},
		},
	},
	{
		Slug:     "fantasy_roleplay",
		Category: types.Category{Name: "Your Wildest Dreams", Description: "Fantasy roleplay with supernatural allure.", SortOrder: 4},
		Subcategories: []SeedSubcategory{
			{"vampires", "Seductive vampires of eternal passion."},
			{"angels", "Fallen angels with heavenly desire."},
			{"demons", "Tempting demons from the shadows."},
			{"witches", "Enchanting witches casting love spells."},
			{"goddesses", "Divine goddesses of irresistible charm."},
			{"aliens", "Exotic aliens from beyond the stars."},
		},
	},
	{
		Slug:     "intimate_conversations",
		Category: types.Category{Name: "Secret Confessions", Description: "Deep, intimate and emotionally connected.", SortOrder: 5},
		Subcategories: []SeedSubcategory{
			{"confessors", "Secret keepers for your deepest desires."},
			{"counselors", "Intimate counselors who truly understand."},
			{"best_friends", "Naughty best friends you can trust."},
			{"diary_keepers", "Personal diary holders of your heart."},
			{"soul_mates", "Destined soul mates who get you."},
			{"pen_pals", "Erotic pen pals for intimate letters."},
		},
	},
	{
		Slug:     "entertainment_fun",
		Category: types.Category{Name: "Playful Temptresses", Description: "Entertainment and fun-loving companions.", SortOrder: 6},
		Subcategories: []SeedSubcategory{
			{"comedians", "Naughty comedians who make pleasure fun."},
			{"dancers", "Exotic dancers with hypnotic moves."},
			{"singers", "Sultry singers with velvet voices."},
			{"gamers", "Gamer girls who love playful competition."},
			{"artists", "Erotic artists who paint with passion."},
			{"party_hosts", "Party goddesses who bring the vibe."},
		},
	},
}

// DefaultSubcategoryAssignments places seeded persona characters into a
// subcategory of their category.
var DefaultSubcategoryAssignments = map[string]string{
	"luna":       "step_sisters",
	"valentina":  "neighbors",
	"sophia":     "cam_girls",
	"maya":       "flirt_coaches",
	"chloe":      "chat_hosts",
	"aria":       "life_coaches",
	"isabella":   "vampires",
	"zara":       "confessors",
	"astro_baba": "comedians",
	"sage":       "artists",
}

// SeedResult counts what Seed created.
type SeedResult struct {
	CategoriesCreated    int
	SubcategoriesCreated int
	CharactersCreated    int
	Skipped              []string
}

// Seed creates the default categories with their subcategories, then one
// active character per persona. Running it again creates nothing new.
func Seed(ctx context.Context, repo *CharacterRepo, personas *persona.Registry) (SeedResult, error) {
	var result SeedResult
	bySlug := make(map[string]int, len(DefaultCategories))
	subcategories := map[string]types.Subcategory{}

	for _, seed := range DefaultCategories {
		cat := seed.Category
		cat.CategoryType = types.CategoryTypeGeneral
		cat.IsActive = true

		saved, isNew, err := repo.EnsureCategory(ctx, cat)
		if err != nil {
			return result, fmt.Errorf("failed to seed category %s: %w", cat.Name, err)
		}
		if isNew {
			result.CategoriesCreated++
		}
		bySlug[seed.Slug] = saved.ID

		for i, sub := range seed.Subcategories {
			savedSub, isNew, err := repo.EnsureSubcategory(ctx, types.Subcategory{
				Name:        sub.Name,
				Description: sub.Description,
				ImageURL:    seedImageURL,
				IsActive:    true,
				SortOrder:   i + 1,
				CategoryID:  saved.ID,
			})
			if err != nil {
				return result, fmt.Errorf("failed to seed subcategory %s: %w", sub.Name, err)
			}
			if isNew {
				result.SubcategoriesCreated++
			}
			subcategories[sub.Name] = *savedSub
		}
	}

	for _, key := range personas.Keys() {
		p, _ := personas.Get(key)
		categoryID, ok := bySlug[p.Category]
		if !ok {
			slog.Warn("persona category has no seed category", "persona", key, "category", p.Category)
			result.Skipped = append(result.Skipped, key)
			continue
		}

		existing, err := repo.FindByPersona(ctx, key)
		if err != nil {
			return result, err
		}
		if existing != nil {
			continue
		}
		character := p.NewCharacter(categoryID)
		if sub, ok := subcategories[DefaultSubcategoryAssignments[key]]; ok && sub.CategoryID == categoryID {
			character.SubcategoryID = sub.ID
		}
		if err := repo.CreateCharacter(ctx, character); err != nil {
			return result, fmt.Errorf("failed to seed character %s: %w", key, err)
		}
		result.CharactersCreated++
	}

	return result, nil
}
