package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/pkg/response"
)

// ToggleFollow 关注/取关切换
// @Summary 切换关注状态
// @Tags 关系链
// @Param id path int true "被关注用户ID"
// @Param X-User-ID header int true "用户ID"
// @Param X-Credential header string true "凭证"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/users/{id}/follow [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	followee, ok := pathID(c, "id")
	if !ok {
		return
	}
	done, err := h.relService.ToggleFollow(c.Request.Context(), authFrom(c), followee)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"toggled": done})
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param id path int true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/{id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, pageSize := queryInt(c, "page", 1), queryInt(c, "page_size", 10)
	list, err := h.relService.ListFollowing(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param id path int true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/{id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, pageSize := queryInt(c, "page", 1), queryInt(c, "page_size", 10)
	list, err := h.relService.ListFollowers(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
