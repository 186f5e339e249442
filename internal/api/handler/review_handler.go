package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/response"
)

type reviewRequest struct {
	Rating int     `json:"rating"`
	Text   *string `json:"text"`
}

// AddReview 发表评论；菜谱不存在时返回 404
// @Router /api/v1/recipes/{id}/reviews [post]
func (h *Handler) AddReview(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.reviewService.Add(c.Request.Context(), authFrom(c), recipeID, req.Rating, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	if id == service.FailedID {
		response.NotFound(c, "recipe not found")
		return
	}
	response.Success(c, gin.H{"review_id": id})
}

// @Router /api/v1/recipes/{id}/reviews/{reviewId} [put]
func (h *Handler) EditReview(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "reviewId")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.reviewService.Edit(c.Request.Context(), authFrom(c), recipeID, reviewID, req.Rating, req.Text); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// @Router /api/v1/recipes/{id}/reviews/{reviewId} [delete]
func (h *Handler) DeleteReview(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "reviewId")
	if !ok {
		return
	}
	if err := h.reviewService.Delete(c.Request.Context(), authFrom(c), recipeID, reviewID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// ListReviews 评论列表，sort=likes_desc 按点赞数优先
// @Router /api/v1/recipes/{id}/reviews [get]
func (h *Handler) ListReviews(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, err := h.reviewService.ListByRecipe(c.Request.Context(), recipeID,
		queryInt(c, "page", 1), queryInt(c, "size", 10), c.Query("sort"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// @Router /api/v1/recipes/{id}/refresh-rating [post]
func (h *Handler) RefreshRating(c *gin.Context) {
	recipeID, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.reviewService.RefreshRating(c.Request.Context(), recipeID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, rec)
}

// @Router /api/v1/reviews/{id}/like [post]
func (h *Handler) LikeReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := h.reviewService.Like(c.Request.Context(), authFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"likes": n})
}

// @Router /api/v1/reviews/{id}/like [delete]
func (h *Handler) UnlikeReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := h.reviewService.Unlike(c.Request.Context(), authFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"likes": n})
}
