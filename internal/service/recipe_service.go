package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

// SearchQuery 菜谱搜索条件，Page 从 1 开始
type SearchQuery struct {
	Keyword   string
	Category  string
	MinRating *float64
	Page      int
	Size      int
	Sort      string
}

// RecipeService 菜谱目录服务
type RecipeService interface {
	Create(ctx context.Context, auth model.Auth, rec *model.Recipe) (int64, error)
	// Get 菜谱不存在时返回 nil
	Get(ctx context.Context, recipeID int64) (*model.Recipe, error)
	GetName(ctx context.Context, recipeID int64) (string, error)
	Search(ctx context.Context, q SearchQuery) (*model.Page[*model.Recipe], error)
	Delete(ctx context.Context, auth model.Auth, recipeID int64) error
	UpdateTimes(ctx context.Context, auth model.Auth, recipeID int64, cookISO, prepISO *string) error
}

type recipeService struct {
	store *repository.Store
	opts  Options
}

func NewRecipeService(store *repository.Store, opts Options) RecipeService {
	return &recipeService{store: store, opts: opts.withDefaults()}
}

func (s *recipeService) Create(ctx context.Context, auth model.Auth, rec *model.Recipe) (int64, error) {
	if rec == nil {
		return 0, invalidf("recipe is required")
	}
	if auth.UserID != rec.AuthorID {
		return 0, unauthorizedf("author %d does not match caller %d", rec.AuthorID, auth.UserID)
	}
	if _, err := authenticate(ctx, s.store, auth); err != nil {
		return 0, err
	}
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		return 0, invalidf("recipe name is blank")
	}

	if rec.CookTime != "" || rec.PrepTime != "" {
		cook, err := parseDuration("cook_time", optional(rec.CookTime))
		if err != nil {
			return 0, err
		}
		prep, err := parseDuration("prep_time", optional(rec.PrepTime))
		if err != nil {
			return 0, err
		}
		rec.CookTime, rec.PrepTime, rec.TotalTime = formatDuration(cook), formatDuration(prep), formatDuration(cook+prep)
	} else if rec.TotalTime != "" {
		total, err := parseDuration("total_time", &rec.TotalTime)
		if err != nil {
			return 0, err
		}
		rec.TotalTime = formatDuration(total)
	}

	if rec.DatePublished.IsZero() {
		rec.DatePublished = s.opts.Now()
	}
	rec.AggregatedRating = 0
	rec.ReviewCount = 0
	parts := dedupeIngredients(rec.Ingredients)

	id, err := s.store.Recipes.Create(ctx, rec, parts)
	if err != nil {
		return 0, err
	}
	rec.Ingredients = parts
	logger.Info("recipe created", zap.Int64("recipe_id", id), zap.Int64("author_id", rec.AuthorID), zap.Int("ingredients", len(parts)))
	return id, nil
}

func (s *recipeService) Get(ctx context.Context, recipeID int64) (*model.Recipe, error) {
	if recipeID <= 0 {
		return nil, invalidf("recipe id must be positive")
	}
	rec, err := s.store.Recipes.GetByID(ctx, recipeID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (s *recipeService) GetName(ctx context.Context, recipeID int64) (string, error) {
	if recipeID <= 0 {
		return "", invalidf("recipe id must be positive")
	}
	name, err := s.store.Recipes.Name(ctx, recipeID)
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return name, nil
}

func (s *recipeService) Search(ctx context.Context, q SearchQuery) (*model.Page[*model.Recipe], error) {
	if q.Page < 1 {
		return nil, invalidf("page must be at least 1")
	}
	if q.Size <= 0 {
		return nil, invalidf("size must be positive")
	}
	items, total, err := s.store.Recipes.Search(ctx, repository.RecipeFilter{
		Keyword:   q.Keyword,
		Category:  q.Category,
		MinRating: q.MinRating,
		Sort:      q.Sort,
		Offset:    model.Offset(q.Page, q.Size),
		Limit:     q.Size,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.Recipe{}
	}
	return &model.Page[*model.Recipe]{Items: items, Page: q.Page, Size: q.Size, Total: total}, nil
}

func (s *recipeService) Delete(ctx context.Context, auth model.Auth, recipeID int64) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.ownedRecipe(ctx, tx, auth, recipeID); err != nil {
			return err
		}
		return tx.Recipes.DeleteCascade(ctx, recipeID)
	})
	if err != nil {
		return err
	}
	logger.Info("recipe deleted", zap.Int64("recipe_id", recipeID), zap.Int64("author_id", auth.UserID))
	return nil
}

func (s *recipeService) UpdateTimes(ctx context.Context, auth model.Auth, recipeID int64, cookISO, prepISO *string) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.ownedRecipe(ctx, tx, auth, recipeID); err != nil {
			return err
		}
		cook, err := parseDuration("cook_time", cookISO)
		if err != nil {
			return err
		}
		prep, err := parseDuration("prep_time", prepISO)
		if err != nil {
			return err
		}
		return tx.Recipes.UpdateTimes(ctx, recipeID, formatDuration(cook), formatDuration(prep), formatDuration(cook+prep))
	})
}

// ownedRecipe 锁定菜谱并确认调用方为作者；菜谱不存在同样视为无权限
func (s *recipeService) ownedRecipe(ctx context.Context, tx *repository.Store, auth model.Auth, recipeID int64) (*model.Recipe, error) {
	if _, err := authenticate(ctx, tx, auth); err != nil {
		return nil, err
	}
	rec, err := tx.Recipes.LockForUpdate(ctx, recipeID)
	if err != nil {
		if isNotFound(err) {
			return nil, unauthorizedf("recipe %d not found", recipeID)
		}
		return nil, err
	}
	if rec.AuthorID != auth.UserID {
		return nil, unauthorizedf("user %d is not the author of recipe %d", auth.UserID, recipeID)
	}
	return rec, nil
}

// dedupeIngredients 去空白、去空串、按原文去重，保持首次出现的顺序
func dedupeIngredients(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
