package repository

import (
	"context"
	"math"
)

// RefreshRating 依据评论表重算菜谱平均分（两位小数）与评论数并写回
func (s *Store) RefreshRating(ctx context.Context, recipeID int64) (float64, int64, error) {
	st, err := s.Reviews.Stats(ctx, recipeID)
	if err != nil {
		return 0, 0, err
	}
	rating := AverageRating(st)
	if err := s.Recipes.UpdateRating(ctx, recipeID, rating, st.ReviewCount); err != nil {
		return 0, 0, err
	}
	return rating, st.ReviewCount, nil
}

// AverageRating 无评论时为 0
func AverageRating(st RatingStats) float64 {
	if st.ReviewCount == 0 {
		return 0
	}
	return math.Round(float64(st.RatingSum)/float64(st.ReviewCount)*100) / 100
}
