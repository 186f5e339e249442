package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/recipehub/internal/cache"
	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/internal/testutil"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *repository.Store
	users     UserService
	rel       RelationshipService
	recipes   RecipeService
	reviews   ReviewService
	analytics AnalyticsService
	imports   ImportService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, nil)
}

func newFixtureWithCache(t *testing.T, fc *cache.FollowCache) *fixture {
	t.Helper()
	st := repository.NewStore(testutil.NewDB(t), repository.SequenceOptions{UserFloor: 9853, MaxAttempts: 3})
	opts := Options{BcryptCost: bcrypt.MinCost, Now: func() time.Time { return fixedNow }}
	return &fixture{
		store:     st,
		users:     NewUserService(st, fc, opts),
		rel:       NewRelationshipService(st, fc),
		recipes:   NewRecipeService(st, opts),
		reviews:   NewReviewService(st, opts),
		analytics: NewAnalyticsService(st),
		imports:   NewImportService(st, opts),
	}
}

// register 注册用户并返回可直接使用的凭证
func (f *fixture) register(t *testing.T, name string) model.Auth {
	t.Helper()
	id, err := f.users.Register(context.Background(), RegisterRequest{
		Name: name, Gender: model.GenderMale, Birthday: "1990-03-15", Credential: name + "-pw",
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))
	return model.Auth{UserID: id, Credential: name + "-pw"}
}

func (f *fixture) recipe(t *testing.T, author model.Auth, name string, ingredients ...string) int64 {
	t.Helper()
	id, err := f.recipes.Create(context.Background(), author, &model.Recipe{Name: name, AuthorID: author.UserID, Ingredients: ingredients})
	require.NoError(t, err)
	return id
}

func (f *fixture) user(t *testing.T, id int64) *model.User {
	t.Helper()
	u, err := f.store.Users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}
