package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/response"
)

type updateTimesRequest struct {
	CookTime *string `json:"cook_time"`
	PrepTime *string `json:"prep_time"`
}

// CreateRecipe 发布菜谱，author_id 必须与调用方一致
// @Router /api/v1/recipes [post]
func (h *Handler) CreateRecipe(c *gin.Context) {
	var rec model.Recipe
	if err := c.ShouldBindJSON(&rec); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.recipeService.Create(c.Request.Context(), authFrom(c), &rec)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"recipe_id": id})
}

// GetRecipe 菜谱详情
// @Router /api/v1/recipes/{id} [get]
func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rec, err := h.recipeService.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if rec == nil {
		response.NotFound(c, "recipe not found")
		return
	}
	response.Success(c, rec)
}

// @Router /api/v1/recipes/{id}/name [get]
func (h *Handler) GetRecipeName(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	name, err := h.recipeService.GetName(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"name": name})
}

// SearchRecipes 关键字/分类/最低评分检索
// @Summary 搜索菜谱
// @Tags 菜谱
// @Param keyword query string false "关键字"
// @Param category query string false "分类"
// @Param min_rating query number false "最低评分"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(10)
// @Param sort query string false "rating_desc|date_desc|calories_asc"
// @Success 200 {object} response.Response
// @Router /api/v1/recipes [get]
func (h *Handler) SearchRecipes(c *gin.Context) {
	q := service.SearchQuery{
		Keyword:  c.Query("keyword"),
		Category: c.Query("category"),
		Page:     queryInt(c, "page", 1),
		Size:     queryInt(c, "size", 10),
		Sort:     c.Query("sort"),
	}
	if raw := c.Query("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(c, "invalid min_rating")
			return
		}
		q.MinRating = &v
	}
	page, err := h.recipeService.Search(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, page)
}

// DeleteRecipe 删除菜谱及其评论、点赞、配料
// @Router /api/v1/recipes/{id} [delete]
func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.Delete(c.Request.Context(), authFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// UpdateTimes 更新烹饪/准备时长（ISO-8601），总时长自动重算
// @Router /api/v1/recipes/{id}/times [patch]
func (h *Handler) UpdateTimes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.recipeService.UpdateTimes(c.Request.Context(), authFrom(c), id, req.CookTime, req.PrepTime); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}
