package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/pkg/response"
)

// @Router /api/v1/analytics/closest-calorie-pair [get]
func (h *Handler) ClosestCaloriePair(c *gin.Context) {
	pair, err := h.analyticsService.ClosestCaloriePair(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if pair == nil {
		response.NotFound(c, "fewer than two recipes with calories")
		return
	}
	response.Success(c, pair)
}

// @Router /api/v1/analytics/top-complex-recipes [get]
func (h *Handler) TopComplexRecipes(c *gin.Context) {
	rows, err := h.analyticsService.TopComplexRecipes(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, rows)
}

// @Router /api/v1/analytics/highest-follow-ratio [get]
func (h *Handler) HighestFollowRatio(c *gin.Context) {
	best, err := h.analyticsService.HighestFollowRatio(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if best == nil {
		response.NotFound(c, "no user follows anyone")
		return
	}
	response.Success(c, best)
}

// Feed 关注的人发布的菜谱，按发布时间倒序
// @Summary 关注流
// @Tags 统计
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量，1-200" default(10)
// @Param category query string false "分类"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/feed [get]
func (h *Handler) Feed(c *gin.Context) {
	page, err := h.analyticsService.Feed(c.Request.Context(), authFrom(c),
		queryInt(c, "page", 1), queryInt(c, "size", 10), c.Query("category"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}
