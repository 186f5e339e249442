package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// ImportUser 导入用的用户记录，Credential 为明文
type ImportUser struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Age        int    `json:"age"`
	Credential string `json:"credential"`
	IsDeleted  bool   `json:"is_deleted"`
}

type ImportLike struct {
	ReviewID int64 `json:"review_id"`
	UserID   int64 `json:"user_id"`
}

// ImportBundle 一次导入的全部数据；评论自带的 likes 与顶层 likes 合并
type ImportBundle struct {
	Users   []ImportUser   `json:"users"`
	Recipes []model.Recipe `json:"recipes"`
	Reviews []model.Review `json:"reviews"`
	Follows []model.Follow `json:"follows"`
	Likes   []ImportLike   `json:"likes"`
}

// ImportStats 实际写入的行数
type ImportStats struct {
	Users       int `json:"users"`
	Recipes     int `json:"recipes"`
	Ingredients int `json:"ingredients"`
	Reviews     int `json:"reviews"`
	Follows     int `json:"follows"`
	Likes       int `json:"likes"`
}

type ImportService interface {
	Decode(r io.Reader) (*ImportBundle, error)
	Import(ctx context.Context, b *ImportBundle) (*ImportStats, error)
}

type importService struct {
	store *repository.Store
	opts  Options
}

func NewImportService(store *repository.Store, opts Options) ImportService {
	return &importService{store: store, opts: opts.withDefaults()}
}

func (s *importService) Decode(r io.Reader) (*ImportBundle, error) {
	var b ImportBundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, invalidf("decode import bundle: %v", err)
	}
	return &b, nil
}

// Import 校验并规范化后在单个事务内写入；任何硬性违规整体拒绝
func (s *importService) Import(ctx context.Context, b *ImportBundle) (*ImportStats, error) {
	if b == nil {
		return nil, invalidf("empty import bundle")
	}

	users, deleted, err := s.normalizeUsers(b.Users)
	if err != nil {
		return nil, err
	}
	userByID := make(map[int64]*model.User, len(users))
	for i := range users {
		userByID[users[i].ID] = &users[i]
	}

	recipes, ingredients, err := normalizeRecipes(b.Recipes, userByID)
	if err != nil {
		return nil, err
	}
	recipeIdx := make(map[int64]int, len(recipes))
	for i := range recipes {
		recipeIdx[recipes[i].ID] = i
	}

	reviews, likes, err := normalizeReviews(b.Reviews, b.Likes, recipeIdx, userByID)
	if err != nil {
		return nil, err
	}
	edges, err := normalizeFollows(b.Follows, userByID, deleted)
	if err != nil {
		return nil, err
	}

	for _, e := range edges {
		userByID[e.FollowerID].FollowingCount++
		userByID[e.FolloweeID].FollowerCount++
	}
	stats := make(map[int64]*repository.RatingStats, len(recipes))
	for _, rv := range reviews {
		st, ok := stats[rv.RecipeID]
		if !ok {
			st = &repository.RatingStats{}
			stats[rv.RecipeID] = st
		}
		st.ReviewCount++
		st.RatingSum += int64(rv.Rating)
	}
	for i := range recipes {
		recipes[i].AggregatedRating, recipes[i].ReviewCount = 0, 0
		if st, ok := stats[recipes[i].ID]; ok {
			recipes[i].AggregatedRating = repository.AverageRating(*st)
			recipes[i].ReviewCount = st.ReviewCount
		}
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.CreateInBatches(ctx, users); err != nil {
			return wrapImportErr("users", err)
		}
		if err := tx.Recipes.CreateInBatches(ctx, recipes, ingredients); err != nil {
			return wrapImportErr("recipes", err)
		}
		if err := tx.Reviews.CreateInBatches(ctx, reviews); err != nil {
			return wrapImportErr("reviews", err)
		}
		if err := tx.Follows.CreateInBatches(ctx, edges); err != nil {
			return wrapImportErr("follows", err)
		}
		return wrapImportErr("likes", tx.Likes.CreateInBatches(ctx, likes))
	})
	if err != nil {
		return nil, err
	}

	out := &ImportStats{
		Users:       len(users),
		Recipes:     len(recipes),
		Ingredients: len(ingredients),
		Reviews:     len(reviews),
		Follows:     len(edges),
		Likes:       len(likes),
	}
	logger.Info("import finished",
		zap.Int("users", out.Users), zap.Int("recipes", out.Recipes), zap.Int("reviews", out.Reviews),
		zap.Int("follows", out.Follows), zap.Int("likes", out.Likes))
	return out, nil
}

func wrapImportErr(table string, err error) error {
	if err == nil {
		return nil
	}
	if repository.IsDuplicateKey(err) {
		return invalidf("import %s: conflicts with existing rows", table)
	}
	return fmt.Errorf("import %s: %w", table, err)
}

func (s *importService) normalizeUsers(in []ImportUser) ([]model.User, map[int64]bool, error) {
	users := make([]model.User, 0, len(in))
	deleted := make(map[int64]bool)
	ids := make(map[int64]struct{}, len(in))
	names := make(map[string]struct{}, len(in))
	for _, iu := range in {
		if iu.ID <= 0 {
			return nil, nil, invalidf("user id %d must be positive", iu.ID)
		}
		if _, dup := ids[iu.ID]; dup {
			return nil, nil, invalidf("duplicate user id %d", iu.ID)
		}
		name := strings.TrimSpace(iu.Name)
		if name == "" {
			return nil, nil, invalidf("user %d has a blank name", iu.ID)
		}
		if _, dup := names[name]; dup {
			return nil, nil, invalidf("duplicate user name %q", name)
		}
		gender, ok := normalizeGender(iu.Gender)
		if !ok {
			return nil, nil, invalidf("user %d gender %q must be Male or Female", iu.ID, iu.Gender)
		}
		if iu.Age <= 0 {
			return nil, nil, invalidf("user %d age must be positive", iu.ID)
		}
		hash, err := hashCredential(iu.Credential, s.opts.BcryptCost)
		if err != nil {
			return nil, nil, err
		}
		ids[iu.ID] = struct{}{}
		names[name] = struct{}{}
		if iu.IsDeleted {
			deleted[iu.ID] = true
		}
		users = append(users, model.User{
			ID:         iu.ID,
			Name:       name,
			Gender:     gender,
			Age:        iu.Age,
			Credential: hash,
			IsDeleted:  iu.IsDeleted,
		})
	}
	return users, deleted, nil
}

func normalizeRecipes(in []model.Recipe, users map[int64]*model.User) ([]model.Recipe, []model.Ingredient, error) {
	recipes := make([]model.Recipe, 0, len(in))
	var ingredients []model.Ingredient
	ids := make(map[int64]struct{}, len(in))
	for _, rec := range in {
		if rec.ID <= 0 {
			return nil, nil, invalidf("recipe id %d must be positive", rec.ID)
		}
		if _, dup := ids[rec.ID]; dup {
			return nil, nil, invalidf("duplicate recipe id %d", rec.ID)
		}
		if strings.TrimSpace(rec.Name) == "" {
			return nil, nil, invalidf("recipe %d has a blank name", rec.ID)
		}
		if _, ok := users[rec.AuthorID]; !ok {
			return nil, nil, invalidf("recipe %d references unknown author %d", rec.ID, rec.AuthorID)
		}
		ids[rec.ID] = struct{}{}
		for _, part := range dedupeIngredients(rec.Ingredients) {
			ingredients = append(ingredients, model.Ingredient{RecipeID: rec.ID, Part: part})
		}
		rec.Ingredients = nil
		recipes = append(recipes, rec)
	}
	return recipes, ingredients, nil
}

func normalizeReviews(in []model.Review, extra []ImportLike, recipes map[int64]int, users map[int64]*model.User) ([]model.Review, []model.ReviewLike, error) {
	reviews := make([]model.Review, 0, len(in))
	authors := make(map[int64]int64, len(in))
	type likeKey struct{ review, user int64 }
	seen := make(map[likeKey]struct{})
	var likes []model.ReviewLike

	addLike := func(reviewID, userID int64) error {
		author, ok := authors[reviewID]
		if !ok {
			return invalidf("like references unknown review %d", reviewID)
		}
		if _, ok := users[userID]; !ok {
			return invalidf("like on review %d references unknown user %d", reviewID, userID)
		}
		if author == userID {
			return invalidf("user %d likes own review %d", userID, reviewID)
		}
		k := likeKey{reviewID, userID}
		if _, dup := seen[k]; dup {
			return nil
		}
		seen[k] = struct{}{}
		likes = append(likes, model.ReviewLike{ReviewID: reviewID, UserID: userID})
		return nil
	}

	for _, rv := range in {
		if rv.ID <= 0 {
			return nil, nil, invalidf("review id %d must be positive", rv.ID)
		}
		if _, dup := authors[rv.ID]; dup {
			return nil, nil, invalidf("duplicate review id %d", rv.ID)
		}
		if _, ok := recipes[rv.RecipeID]; !ok {
			return nil, nil, invalidf("review %d references unknown recipe %d", rv.ID, rv.RecipeID)
		}
		if _, ok := users[rv.AuthorID]; !ok {
			return nil, nil, invalidf("review %d references unknown author %d", rv.ID, rv.AuthorID)
		}
		if rv.Rating < minRating || rv.Rating > maxRating {
			return nil, nil, invalidf("review %d rating %d out of range", rv.ID, rv.Rating)
		}
		if rv.ModifiedAt.IsZero() {
			rv.ModifiedAt = rv.SubmittedAt
		}
		authors[rv.ID] = rv.AuthorID
		reviews = append(reviews, rv)
	}
	for i := range reviews {
		for _, uid := range reviews[i].Likes {
			if err := addLike(reviews[i].ID, uid); err != nil {
				return nil, nil, err
			}
		}
		reviews[i].Likes = nil
	}
	for _, l := range extra {
		if err := addLike(l.ReviewID, l.UserID); err != nil {
			return nil, nil, err
		}
	}
	return reviews, likes, nil
}

func normalizeFollows(in []model.Follow, users map[int64]*model.User, deleted map[int64]bool) ([]model.Follow, error) {
	type edgeKey struct{ from, to int64 }
	seen := make(map[edgeKey]struct{}, len(in))
	edges := make([]model.Follow, 0, len(in))
	for _, e := range in {
		if e.FollowerID == e.FolloweeID {
			return nil, invalidf("user %d follows self", e.FollowerID)
		}
		if _, ok := users[e.FollowerID]; !ok {
			return nil, invalidf("follow edge references unknown user %d", e.FollowerID)
		}
		if _, ok := users[e.FolloweeID]; !ok {
			return nil, invalidf("follow edge references unknown user %d", e.FolloweeID)
		}
		// 已删除用户不保留关注边
		if deleted[e.FollowerID] || deleted[e.FolloweeID] {
			continue
		}
		k := edgeKey{e.FollowerID, e.FolloweeID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		edges = append(edges, model.Follow{FollowerID: e.FollowerID, FolloweeID: e.FolloweeID, CreatedAt: e.CreatedAt})
	}
	return edges, nil
}
