package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/recipehub/internal/model"
)

const bundleJSON = `{
  "users": [
    {"id": 1, "name": "ann", "gender": "female", "age": 30, "credential": "pw1"},
    {"id": 2, "name": "ben", "gender": "Male", "age": 41, "credential": "pw2"},
    {"id": 3, "name": "cat", "gender": "Female", "age": 22, "credential": "pw3", "is_deleted": true}
  ],
  "recipes": [
    {"id": 10, "name": "Soup", "author_id": 1, "calories": 120, "ingredients": ["water", "salt", "water", " "]},
    {"id": 11, "name": "Cake", "author_id": 2, "ingredients": ["flour"]}
  ],
  "reviews": [
    {"id": 100, "recipe_id": 10, "author_id": 2, "rating": 5, "likes": [1, 1]},
    {"id": 101, "recipe_id": 10, "author_id": 3, "rating": 2}
  ],
  "follows": [
    {"follower_id": 1, "followee_id": 2},
    {"follower_id": 1, "followee_id": 2},
    {"follower_id": 2, "followee_id": 1},
    {"follower_id": 3, "followee_id": 1}
  ],
  "likes": [{"review_id": 101, "user_id": 2}]
}`

func TestImportNormalizesAndDerives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.imports.Decode(strings.NewReader(bundleJSON))
	require.NoError(t, err)
	stats, err := f.imports.Import(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, &ImportStats{Users: 3, Recipes: 2, Ingredients: 3, Reviews: 2, Follows: 2, Likes: 2}, stats)

	ann := f.user(t, 1)
	assert.Equal(t, model.GenderFemale, ann.Gender)
	assert.Equal(t, int64(1), ann.FollowerCount)
	assert.Equal(t, int64(1), ann.FollowingCount)
	assert.Zero(t, f.user(t, 3).FollowingCount)

	_, err = f.users.Login(ctx, model.Auth{UserID: 2, Credential: "pw2"})
	require.NoError(t, err)

	soup, err := f.recipes.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"salt", "water"}, soup.Ingredients)
	assert.Equal(t, 3.5, soup.AggregatedRating)
	assert.Equal(t, int64(2), soup.ReviewCount)

	cake, err := f.recipes.Get(ctx, 11)
	require.NoError(t, err)
	assert.Zero(t, cake.AggregatedRating)

	// 导入后新分配的 ID 在已有最大值之上
	id, err := f.users.Register(ctx, RegisterRequest{Name: "dan", Gender: "Male", Birthday: "1990-01-01", Credential: "x"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)
}

func TestImportRejectsViolations(t *testing.T) {
	users := []ImportUser{
		{ID: 1, Name: "a", Gender: "Male", Age: 20},
		{ID: 2, Name: "b", Gender: "Male", Age: 20},
	}
	recipe := model.Recipe{ID: 1, Name: "r", AuthorID: 1}
	review := model.Review{ID: 1, RecipeID: 1, AuthorID: 2, Rating: 4}

	cases := []struct {
		name string
		b    ImportBundle
	}{
		{"duplicate user id", ImportBundle{Users: append(users, ImportUser{ID: 1, Name: "c", Gender: "Male", Age: 3})}},
		{"duplicate name", ImportBundle{Users: append(users, ImportUser{ID: 3, Name: "a", Gender: "Male", Age: 3})}},
		{"bad age", ImportBundle{Users: []ImportUser{{ID: 1, Name: "a", Gender: "Male"}}}},
		{"dangling author", ImportBundle{Users: users, Recipes: []model.Recipe{{ID: 1, Name: "r", AuthorID: 9}}}},
		{"dangling recipe", ImportBundle{Users: users, Reviews: []model.Review{review}}},
		{"rating out of range", ImportBundle{Users: users, Recipes: []model.Recipe{recipe}, Reviews: []model.Review{{ID: 1, RecipeID: 1, AuthorID: 2, Rating: 6}}}},
		{"self like", ImportBundle{Users: users, Recipes: []model.Recipe{recipe}, Reviews: []model.Review{review}, Likes: []ImportLike{{ReviewID: 1, UserID: 2}}}},
		{"self follow", ImportBundle{Users: users, Follows: []model.Follow{{FollowerID: 1, FolloweeID: 1}}}},
		{"dangling follow", ImportBundle{Users: users, Follows: []model.Follow{{FollowerID: 1, FolloweeID: 7}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			b := tc.b
			_, err := f.imports.Import(context.Background(), &b)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var n int64
			require.NoError(t, f.store.DB().Model(&model.User{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}
}

func TestImportConflictRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.imports.Decode(strings.NewReader(bundleJSON))
	require.NoError(t, err)
	_, err = f.imports.Import(ctx, b)
	require.NoError(t, err)

	again := &ImportBundle{
		Users:   []ImportUser{{ID: 50, Name: "new", Gender: "Male", Age: 20}},
		Recipes: []model.Recipe{{ID: 10, Name: "clash", AuthorID: 50}},
	}
	_, err = f.imports.Import(ctx, again)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.store.Users.GetByID(ctx, 50)
	assert.True(t, isNotFound(err), "user row rolled back with the failed batch")
}

func TestDecodeRejectsMalformed(t *testing.T) {
	f := newFixture(t)
	_, err := f.imports.Decode(strings.NewReader(`{"users": [`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
