package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/types"
)

func TestSubcategoriesByCategory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := store.Characters

	fantasy := &types.Category{Name: "Fantasy", IsActive: true}
	require.NoError(t, repo.CreateCategory(ctx, fantasy))
	confessions := &types.Category{Name: "Confessions", IsActive: true}
	require.NoError(t, repo.CreateCategory(ctx, confessions))

	seeds := []types.Subcategory{
		{Name: "witches", SortOrder: 2, CategoryID: fantasy.ID, IsActive: true},
		{Name: "vampires", SortOrder: 1, CategoryID: fantasy.ID, IsActive: true},
		{Name: "pen_pals", SortOrder: 1, CategoryID: confessions.ID, IsActive: true},
	}
	for _, sub := range seeds {
		_, created, err := repo.EnsureSubcategory(ctx, sub)
		require.NoError(t, err)
		require.True(t, created)
	}

	subs, err := repo.ListSubcategories(ctx, fantasy.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, "vampires", subs[0].Name)
	require.Equal(t, "witches", subs[1].Name)

	all, err := repo.ListSubcategories(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	got, err := repo.GetSubcategory(ctx, subs[1].ID)
	require.NoError(t, err)
	require.Equal(t, fantasy.ID, got.CategoryID)

	_, err = repo.GetSubcategory(ctx, 999)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestEnsureSubcategoryMovesDriftedCategory(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Characters

	_, _, err := repo.EnsureSubcategory(ctx, types.Subcategory{Name: "angels"})
	require.True(t, apperr.Is(err, apperr.KindInvalid))

	first, created, err := repo.EnsureSubcategory(ctx, types.Subcategory{Name: "angels", CategoryID: 1, IsActive: true})
	require.NoError(t, err)
	require.True(t, created)

	moved, created, err := repo.EnsureSubcategory(ctx, types.Subcategory{Name: "angels", CategoryID: 2, IsActive: true})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, moved.ID)
	require.Equal(t, 2, moved.CategoryID)

	subs, err := repo.ListSubcategories(ctx, 2)
	require.NoError(t, err)
	require.Len(t, subs, 1)
}

func TestListCategoriesByType(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Characters

	for _, c := range []types.Category{
		{Name: "Zest", CategoryType: types.CategoryTypeTrending, SortOrder: 1, IsActive: true},
		{Name: "Amber", CategoryType: types.CategoryTypeTrending, SortOrder: 1, IsActive: true},
		{Name: "Fresh", CategoryType: types.CategoryTypeLatest, SortOrder: 0, IsActive: true},
	} {
		category := c
		require.NoError(t, repo.CreateCategory(ctx, &category))
	}

	trending, err := repo.ListCategoriesByType(ctx, " Trending ")
	require.NoError(t, err)
	require.Len(t, trending, 2)
	require.Equal(t, "Amber", trending[0].Name)
	require.Equal(t, "Zest", trending[1].Name)

	general, err := repo.ListCategoriesByType(ctx, types.CategoryTypeGeneral)
	require.NoError(t, err)
	require.Empty(t, general)
}
