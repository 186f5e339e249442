package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/recipehub/internal/model"
)

func TestCreateThenGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef := f.register(t, "chef")

	rec := &model.Recipe{
		Name:        "  Stew ",
		AuthorID:    chef.UserID,
		CookTime:    "PT30M",
		PrepTime:    "PT15M",
		Category:    "Main",
		Ingredients: []string{"salt", "Pepper", " salt ", "", "apple", "pepper"},
		// 派生字段由服务端计算
		AggregatedRating: 4.9,
		ReviewCount:      12,
	}
	id, err := f.recipes.Create(ctx, chef, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	got, err := f.recipes.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Stew", got.Name)
	assert.Equal(t, "chef", got.AuthorName)
	assert.Equal(t, []string{"apple", "Pepper", "pepper", "salt"}, got.Ingredients)
	assert.Equal(t, "PT45M", got.TotalTime)
	assert.Zero(t, got.AggregatedRating)
	assert.Zero(t, got.ReviewCount)
	assert.True(t, got.DatePublished.Equal(fixedNow))

	second := f.recipe(t, chef, "Salad")
	assert.Equal(t, int64(2), second)
}

func TestCreateRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef, other, gone := f.register(t, "chef"), f.register(t, "other"), f.register(t, "gone")
	_, err := f.users.SoftDelete(ctx, gone, gone.UserID)
	require.NoError(t, err)

	_, err = f.recipes.Create(ctx, other, &model.Recipe{Name: "x", AuthorID: chef.UserID})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.recipes.Create(ctx, gone, &model.Recipe{Name: "x", AuthorID: gone.UserID})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.recipes.Create(ctx, model.Auth{UserID: chef.UserID, Credential: "bad"}, &model.Recipe{Name: "x", AuthorID: chef.UserID})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.recipes.Create(ctx, chef, &model.Recipe{Name: " ", AuthorID: chef.UserID})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.recipes.Create(ctx, chef, &model.Recipe{Name: "x", AuthorID: chef.UserID, CookTime: "thirty minutes"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetAndGetName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef := f.register(t, "chef")
	id := f.recipe(t, chef, "Pie")

	rec, err := f.recipes.Get(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, rec)

	name, err := f.recipes.GetName(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Pie", name)
	_, err = f.recipes.GetName(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.recipes.GetName(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef := f.register(t, "chef")
	for i := 0; i < 15; i++ {
		_, err := f.recipes.Create(ctx, chef, &model.Recipe{
			Name: fmt.Sprintf("Tart %d", i), AuthorID: chef.UserID, Category: "Dessert",
			DatePublished: fixedNow.Add(-time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	f.recipe(t, chef, "Bread")

	page, err := f.recipes.Search(ctx, SearchQuery{Category: "Dessert", Page: 2, Size: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, int64(15), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Size)

	page, err = f.recipes.Search(ctx, SearchQuery{Keyword: "TART", Page: 1, Size: 3, Sort: model.SortDateDesc})
	require.NoError(t, err)
	assert.Equal(t, int64(15), page.Total)
	assert.Equal(t, []int64{1, 2, 3}, []int64{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})

	page, err = f.recipes.Search(ctx, SearchQuery{Page: 1, Size: 2, Sort: "no_such_sort"})
	require.NoError(t, err)
	assert.Equal(t, int64(16), page.Items[0].ID, "unknown sort falls back to rating desc, id desc")

	_, err = f.recipes.Search(ctx, SearchQuery{Page: 0, Size: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.recipes.Search(ctx, SearchQuery{Page: 1, Size: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchMinRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef, critic := f.register(t, "chef"), f.register(t, "critic")
	good, bad := f.recipe(t, chef, "Good"), f.recipe(t, chef, "Bad")
	_, err := f.reviews.Add(ctx, critic, good, 5, nil)
	require.NoError(t, err)
	_, err = f.reviews.Add(ctx, critic, bad, 2, nil)
	require.NoError(t, err)

	min := 4.0
	page, err := f.recipes.Search(ctx, SearchQuery{MinRating: &min, Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, good, page.Items[0].ID)
}

func TestDeleteRecipeCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef, fan := f.register(t, "chef"), f.register(t, "fan")
	id := f.recipe(t, chef, "Pie", "apple", "flour")
	rv, err := f.reviews.Add(ctx, fan, id, 4, nil)
	require.NoError(t, err)
	_, err = f.reviews.Like(ctx, chef, rv)
	require.NoError(t, err)

	assert.ErrorIs(t, f.recipes.Delete(ctx, fan, id), ErrUnauthorized)
	assert.ErrorIs(t, f.recipes.Delete(ctx, chef, 999), ErrUnauthorized)

	require.NoError(t, f.recipes.Delete(ctx, chef, id))
	rec, err := f.recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec)

	var n int64
	for _, m := range []any{&model.Ingredient{}, &model.Review{}, &model.ReviewLike{}} {
		require.NoError(t, f.store.DB().Model(m).Count(&n).Error)
		assert.Zero(t, n)
	}

	next := f.recipe(t, chef, "Pie again")
	assert.Equal(t, id+1, next, "deleted ids are not handed out again")
}

func TestUpdateTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef, other := f.register(t, "chef"), f.register(t, "other")
	id := f.recipe(t, chef, "Roast")
	str := func(s string) *string { return &s }

	require.NoError(t, f.recipes.UpdateTimes(ctx, chef, id, str("PT1H"), str("PT20M")))
	rec, err := f.recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PT1H", rec.CookTime)
	assert.Equal(t, "PT20M", rec.PrepTime)
	assert.Equal(t, "PT1H20M", rec.TotalTime)

	require.NoError(t, f.recipes.UpdateTimes(ctx, chef, id, str("PT2H"), nil))
	rec, err = f.recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PT2H", rec.CookTime)
	assert.Equal(t, "PT2H", rec.TotalTime)

	assert.ErrorIs(t, f.recipes.UpdateTimes(ctx, other, id, str("PT1H"), nil), ErrUnauthorized)
	assert.ErrorIs(t, f.recipes.UpdateTimes(ctx, chef, 999, str("PT1H"), nil), ErrUnauthorized)
	assert.ErrorIs(t, f.recipes.UpdateTimes(ctx, chef, id, str("1 hour"), nil), ErrInvalidInput)
	assert.ErrorIs(t, f.recipes.UpdateTimes(ctx, chef, id, nil, str("-PT5M")), ErrInvalidInput)
	assert.ErrorIs(t, f.recipes.UpdateTimes(ctx, chef, id, str("P1M"), nil), ErrInvalidInput)

	rec, err = f.recipes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "PT2H", rec.TotalTime, "failed updates leave times untouched")
}

func TestDedupeIngredients(t *testing.T) {
	assert.Equal(t, []string{"a", "B", "b"}, dedupeIngredients([]string{"a", " a", "B", "", "b", "  "}))
	assert.Empty(t, dedupeIngredients(nil))
}
