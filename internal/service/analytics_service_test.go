package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
)

func cal(v float64) *float64 { return &v }

func TestClosestCaloriePairScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef := f.register(t, "chef")

	pair, err := f.analytics.ClosestCaloriePair(ctx)
	require.NoError(t, err)
	assert.Nil(t, pair)

	for _, c := range []float64{100, 103, 150} {
		_, err := f.recipes.Create(ctx, chef, &model.Recipe{Name: "r", AuthorID: chef.UserID, Calories: cal(c)})
		require.NoError(t, err)
	}
	f.recipe(t, chef, "no calories")

	pair, err = f.analytics.ClosestCaloriePair(ctx)
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, int64(1), pair.RecipeA)
	assert.Equal(t, int64(2), pair.RecipeB)
	assert.Equal(t, 3.0, pair.Difference)
}

func TestClosestPairTieBreak(t *testing.T) {
	// 两组相邻差值都是 10，按扫描顺序的 (idA, idB) 取 (2,9)
	pair := closestPair([]repository.CaloriePoint{{ID: 2, Calories: 10}, {ID: 9, Calories: 20}, {ID: 1, Calories: 30}})
	require.NotNil(t, pair)
	assert.Equal(t, int64(2), pair.RecipeA)
	assert.Equal(t, int64(9), pair.RecipeB)
	assert.Equal(t, 10.0, pair.CaloriesA)
	assert.Equal(t, 20.0, pair.CaloriesB)
	assert.Equal(t, 10.0, pair.Difference)

	// RecipeA 始终是卡路里较低的一项，即使其 ID 更大
	pair = closestPair([]repository.CaloriePoint{{ID: 3, Calories: 10}, {ID: 2, Calories: 20}, {ID: 1, Calories: 35}})
	require.NotNil(t, pair)
	assert.Equal(t, [2]int64{3, 2}, [2]int64{pair.RecipeA, pair.RecipeB})
	assert.Equal(t, 10.0, pair.CaloriesA)

	pair = closestPair([]repository.CaloriePoint{{ID: 4, Calories: 5}, {ID: 9, Calories: 5}, {ID: 2, Calories: 7}})
	require.NotNil(t, pair)
	assert.Equal(t, [2]int64{4, 9}, [2]int64{pair.RecipeA, pair.RecipeB})
	assert.Zero(t, pair.Difference)

	assert.Nil(t, closestPair([]repository.CaloriePoint{{ID: 1, Calories: 1}}))
}

func TestTopComplexRecipes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chef := f.register(t, "chef")

	rows, err := f.analytics.TopComplexRecipes(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	f.recipe(t, chef, "one", "a")
	f.recipe(t, chef, "two", "a", "b")
	f.recipe(t, chef, "three", "a", "b", "c", "c")
	f.recipe(t, chef, "two again", "x", "y")
	f.recipe(t, chef, "none")

	rows, err = f.analytics.TopComplexRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []int64{3, 2, 4}, []int64{rows[0].RecipeID, rows[1].RecipeID, rows[2].RecipeID})
	assert.Equal(t, int64(3), rows[0].IngredientCount)
	assert.Equal(t, "three", rows[0].Name)
}

func TestHighestRatioCrossMultiplication(t *testing.T) {
	best := highestRatio([]repository.FollowCounts{
		{ID: 1, Name: "X", FollowerCount: 10, FollowingCount: 2},
		{ID: 2, Name: "Y", FollowerCount: 4, FollowingCount: 1},
	})
	require.NotNil(t, best)
	assert.Equal(t, int64(1), best.UserID)
	assert.Equal(t, 5.0, best.Ratio)

	best = highestRatio([]repository.FollowCounts{
		{ID: 5, FollowerCount: 2, FollowingCount: 1},
		{ID: 3, FollowerCount: 4, FollowingCount: 2},
	})
	require.NotNil(t, best)
	assert.Equal(t, int64(3), best.UserID, "ties go to the smaller id")

	assert.Nil(t, highestRatio(nil))
	assert.Nil(t, highestRatio([]repository.FollowCounts{{ID: 1, FollowerCount: 3}}))
}

func TestHighestFollowRatioService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c, d := f.register(t, "a"), f.register(t, "b"), f.register(t, "c"), f.register(t, "d")

	best, err := f.analytics.HighestFollowRatio(ctx)
	require.NoError(t, err)
	assert.Nil(t, best)

	for _, e := range [][2]model.Auth{{a, b}, {b, a}, {c, a}, {d, a}} {
		_, err := f.rel.ToggleFollow(ctx, e[0], e[1].UserID)
		require.NoError(t, err)
	}
	best, err = f.analytics.HighestFollowRatio(ctx)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, a.UserID, best.UserID)
	assert.Equal(t, "a", best.Name)
	assert.Equal(t, 3.0, best.Ratio)

	_, err = f.users.SoftDelete(ctx, a, a.UserID)
	require.NoError(t, err)
	best, err = f.analytics.HighestFollowRatio(ctx)
	require.NoError(t, err)
	assert.Nil(t, best, "nobody follows anyone after the cascade")
}

func TestFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader, followed, stranger := f.register(t, "reader"), f.register(t, "followed"), f.register(t, "stranger")
	_, err := f.rel.ToggleFollow(ctx, reader, followed.UserID)
	require.NoError(t, err)

	for i, cat := range []string{"Soup", "Cake", "Soup"} {
		_, err := f.recipes.Create(ctx, followed, &model.Recipe{
			Name: cat, AuthorID: followed.UserID, Category: cat,
			DatePublished: fixedNow.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	f.recipe(t, stranger, "hidden")

	page, err := f.analytics.Feed(ctx, reader, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{page.Items[0].RecipeID, page.Items[1].RecipeID, page.Items[2].RecipeID})
	assert.Equal(t, "followed", page.Items[0].AuthorName)

	page, err = f.analytics.Feed(ctx, reader, 1, 10, "Soup")
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = f.analytics.Feed(ctx, reader, 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Size)
	assert.Len(t, page.Items, 1)

	page, err = f.analytics.Feed(ctx, reader, 1, 500, "")
	require.NoError(t, err)
	assert.Equal(t, 200, page.Size)

	_, err = f.analytics.Feed(ctx, model.Auth{UserID: reader.UserID, Credential: "bad"}, 1, 10, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
