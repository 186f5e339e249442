package service

import (
	"context"
	"math"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
)

const topComplexLimit = 3

// AnalyticsService 只读统计与关注流
type AnalyticsService interface {
	// ClosestCaloriePair 合格菜谱少于两个时返回 nil
	ClosestCaloriePair(ctx context.Context) (*model.CaloriePair, error)
	TopComplexRecipes(ctx context.Context) ([]model.ComplexRecipe, error)
	// HighestFollowRatio 没有关注数 > 0 的用户时返回 nil
	HighestFollowRatio(ctx context.Context) (*model.FollowRatio, error)
	Feed(ctx context.Context, auth model.Auth, page, size int, category string) (*model.Page[*model.FeedItem], error)
}

type analyticsService struct {
	store *repository.Store
}

func NewAnalyticsService(store *repository.Store) AnalyticsService {
	return &analyticsService{store: store}
}

func (s *analyticsService) ClosestCaloriePair(ctx context.Context) (*model.CaloriePair, error) {
	pts, err := s.store.Recipes.CaloriePoints(ctx)
	if err != nil {
		return nil, err
	}
	return closestPair(pts), nil
}

// closestPair pts 已按 (calories, id) 升序；只比较相邻项，RecipeA 为扫描顺序中的前一项，
// 差值相同取 (idA, idB) 字典序最小者
func closestPair(pts []repository.CaloriePoint) *model.CaloriePair {
	if len(pts) < 2 {
		return nil
	}
	var best *model.CaloriePair
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		diff := math.Abs(b.Calories - a.Calories)
		if best == nil || diff < best.Difference ||
			(diff == best.Difference && (a.ID < best.RecipeA || (a.ID == best.RecipeA && b.ID < best.RecipeB))) {
			best = &model.CaloriePair{RecipeA: a.ID, RecipeB: b.ID, CaloriesA: a.Calories, CaloriesB: b.Calories, Difference: diff}
		}
	}
	return best
}

func (s *analyticsService) TopComplexRecipes(ctx context.Context) ([]model.ComplexRecipe, error) {
	rows, err := s.store.Recipes.TopByIngredientCount(ctx, topComplexLimit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []model.ComplexRecipe{}
	}
	return rows, nil
}

func (s *analyticsService) HighestFollowRatio(ctx context.Context) (*model.FollowRatio, error) {
	rows, err := s.store.Users.ActiveFollowCounts(ctx)
	if err != nil {
		return nil, err
	}
	return highestRatio(rows), nil
}

// highestRatio 交叉相乘比较 followers/following，避免浮点误差；相等取较小 ID
func highestRatio(rows []repository.FollowCounts) *model.FollowRatio {
	var best *repository.FollowCounts
	for i := range rows {
		c := &rows[i]
		if c.FollowingCount <= 0 {
			continue
		}
		if best == nil {
			best = c
			continue
		}
		lhs := c.FollowerCount * best.FollowingCount
		rhs := best.FollowerCount * c.FollowingCount
		if lhs > rhs || (lhs == rhs && c.ID < best.ID) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return &model.FollowRatio{
		UserID: best.ID,
		Name:   best.Name,
		Ratio:  float64(best.FollowerCount) / float64(best.FollowingCount),
	}
}

func (s *analyticsService) Feed(ctx context.Context, auth model.Auth, page, size int, category string) (*model.Page[*model.FeedItem], error) {
	if _, err := authenticate(ctx, s.store, auth); err != nil {
		return nil, err
	}
	page, size = clampPage(page, size, 1)
	items, total, err := s.store.Recipes.Feed(ctx, auth.UserID, category, model.Offset(page, size), size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*model.FeedItem{}
	}
	return &model.Page[*model.FeedItem]{Items: items, Page: page, Size: size, Total: total}, nil
}
