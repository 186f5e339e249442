package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/repository"
	"github.com/d60-Lab/recipehub/pkg/logger"
)

const (
	minRating = 1
	maxRating = 5
)

var errRecipeMissing = fmt.Errorf("%w: recipe not found", ErrInvalidInput)

// ReviewService 评论、点赞与评分聚合
type ReviewService interface {
	// Add 菜谱不存在时返回 FailedID 且 err 为 nil
	Add(ctx context.Context, auth model.Auth, recipeID int64, rating int, text *string) (int64, error)
	Edit(ctx context.Context, auth model.Auth, recipeID, reviewID int64, rating int, text *string) error
	Delete(ctx context.Context, auth model.Auth, recipeID, reviewID int64) error
	Like(ctx context.Context, auth model.Auth, reviewID int64) (int64, error)
	Unlike(ctx context.Context, auth model.Auth, reviewID int64) (int64, error)
	ListByRecipe(ctx context.Context, recipeID int64, page, size int, sort string) (*model.Page[*model.Review], error)
	RefreshRating(ctx context.Context, recipeID int64) (*model.Recipe, error)
}

type reviewService struct {
	store *repository.Store
	opts  Options
}

func NewReviewService(store *repository.Store, opts Options) ReviewService {
	return &reviewService{store: store, opts: opts.withDefaults()}
}

// mutateReviews 评论写操作的统一流程：鉴权、锁定菜谱、执行变更、重算评分，全部在同一事务内
func (s *reviewService) mutateReviews(ctx context.Context, auth model.Auth, recipeID int64, mutate func(tx *repository.Store) error) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authenticate(ctx, tx, auth); err != nil {
			return err
		}
		if _, err := tx.Recipes.LockForUpdate(ctx, recipeID); err != nil {
			if isNotFound(err) {
				return errRecipeMissing
			}
			return err
		}
		if err := mutate(tx); err != nil {
			return err
		}
		rating, count, err := tx.RefreshRating(ctx, recipeID)
		if err != nil {
			return fmt.Errorf("refresh rating: %w", err)
		}
		logger.Debug("rating refreshed",
			zap.Int64("recipe_id", recipeID), zap.Float64("rating", rating), zap.Int64("reviews", count))
		return nil
	})
}

func (s *reviewService) Add(ctx context.Context, auth model.Auth, recipeID int64, rating int, text *string) (int64, error) {
	if rating < minRating || rating > maxRating {
		return 0, invalidf("rating %d out of range [%d,%d]", rating, minRating, maxRating)
	}
	var id int64
	err := s.mutateReviews(ctx, auth, recipeID, func(tx *repository.Store) error {
		now := s.opts.Now()
		rv := &model.Review{
			RecipeID:    recipeID,
			AuthorID:    auth.UserID,
			Rating:      rating,
			Text:        text,
			SubmittedAt: now,
			ModifiedAt:  now,
		}
		var err error
		id, err = tx.Reviews.Create(ctx, rv)
		return err
	})
	if errors.Is(err, errRecipeMissing) {
		return FailedID, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *reviewService) Edit(ctx context.Context, auth model.Auth, recipeID, reviewID int64, rating int, text *string) error {
	if rating < minRating || rating > maxRating {
		return invalidf("rating %d out of range [%d,%d]", rating, minRating, maxRating)
	}
	return s.mutateReviews(ctx, auth, recipeID, func(tx *repository.Store) error {
		if _, err := ownedReview(ctx, tx, auth, recipeID, reviewID); err != nil {
			return err
		}
		return tx.Reviews.Update(ctx, reviewID, rating, text, s.opts.Now())
	})
}

func (s *reviewService) Delete(ctx context.Context, auth model.Auth, recipeID, reviewID int64) error {
	return s.mutateReviews(ctx, auth, recipeID, func(tx *repository.Store) error {
		if _, err := ownedReview(ctx, tx, auth, recipeID, reviewID); err != nil {
			return err
		}
		return tx.Reviews.Delete(ctx, reviewID)
	})
}

func ownedReview(ctx context.Context, tx *repository.Store, auth model.Auth, recipeID, reviewID int64) (*model.Review, error) {
	rv, err := tx.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		if isNotFound(err) {
			return nil, invalidf("review %d not found", reviewID)
		}
		return nil, err
	}
	if rv.RecipeID != recipeID {
		return nil, invalidf("review %d does not belong to recipe %d", reviewID, recipeID)
	}
	if rv.AuthorID != auth.UserID {
		return nil, unauthorizedf("user %d is not the author of review %d", auth.UserID, reviewID)
	}
	return rv, nil
}

func (s *reviewService) Like(ctx context.Context, auth model.Auth, reviewID int64) (int64, error) {
	var count int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authenticate(ctx, tx, auth); err != nil {
			return err
		}
		rv, err := tx.Reviews.GetByID(ctx, reviewID)
		if err != nil {
			if isNotFound(err) {
				return invalidf("review %d not found", reviewID)
			}
			return err
		}
		if rv.AuthorID == auth.UserID {
			return invalidf("cannot like own review")
		}
		if err := tx.Likes.Add(ctx, reviewID, auth.UserID); err != nil {
			return err
		}
		count, err = tx.Likes.Count(ctx, reviewID)
		return err
	})
	return count, err
}

func (s *reviewService) Unlike(ctx context.Context, auth model.Auth, reviewID int64) (int64, error) {
	var count int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := authenticate(ctx, tx, auth); err != nil {
			return err
		}
		if _, err := tx.Reviews.GetByID(ctx, reviewID); err != nil {
			if isNotFound(err) {
				return invalidf("review %d not found", reviewID)
			}
			return err
		}
		if err := tx.Likes.Remove(ctx, reviewID, auth.UserID); err != nil {
			return err
		}
		var err error
		count, err = tx.Likes.Count(ctx, reviewID)
		return err
	})
	return count, err
}

func (s *reviewService) ListByRecipe(ctx context.Context, recipeID int64, page, size int, sort string) (*model.Page[*model.Review], error) {
	if page < 1 || size <= 0 {
		return nil, invalidf("invalid page %d or size %d", page, size)
	}
	if _, err := s.store.Recipes.Name(ctx, recipeID); err != nil {
		if isNotFound(err) {
			return nil, invalidf("recipe %d not found", recipeID)
		}
		return nil, err
	}

	items, total, err := s.store.Reviews.ListByRecipe(ctx, recipeID, sort, model.Offset(page, size), size)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	likers, err := s.store.Likes.Likers(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.Likes = likers[it.ID]
		if it.Likes == nil {
			it.Likes = []int64{}
		}
	}
	if items == nil {
		items = []*model.Review{}
	}
	return &model.Page[*model.Review]{Items: items, Page: page, Size: size, Total: total}, nil
}

func (s *reviewService) RefreshRating(ctx context.Context, recipeID int64) (*model.Recipe, error) {
	var rec *model.Recipe
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Recipes.LockForUpdate(ctx, recipeID); err != nil {
			if isNotFound(err) {
				return invalidf("recipe %d not found", recipeID)
			}
			return err
		}
		if _, _, err := tx.RefreshRating(ctx, recipeID); err != nil {
			return err
		}
		var err error
		rec, err = tx.Recipes.GetByID(ctx, recipeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
