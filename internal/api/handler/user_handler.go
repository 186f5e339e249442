package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/response"
)

type registerRequest struct {
	Name       string `json:"name" binding:"required"`
	Gender     string `json:"gender" binding:"required,gender"`
	Birthday   string `json:"birthday" binding:"required,datetime=2006-01-02"`
	Credential string `json:"credential"`
}

type updateProfileRequest struct {
	Gender *string `json:"gender" binding:"omitempty,gender"`
	Age    *int    `json:"age" binding:"omitempty,min=0"`
}

// Register 注册用户
// @Summary 注册
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/users/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.userService.Register(c.Request.Context(), service.RegisterRequest{
		Name:       req.Name,
		Gender:     req.Gender,
		Birthday:   req.Birthday,
		Credential: req.Credential,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if id == service.FailedID {
		response.InternalError(c, errIDExhausted)
		return
	}
	response.Success(c, gin.H{"user_id": id})
}

// Login 校验请求头中的凭证
// @Summary 登录
// @Tags 用户
// @Param X-User-ID header int true "用户ID"
// @Param X-Credential header string true "凭证"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	id, err := h.userService.Login(c.Request.Context(), authFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"user_id": id})
}

// GetProfile 查询用户主页
// @Summary 用户主页
// @Tags 用户
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=model.UserProfile}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.userService.GetProfile(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if p == nil {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, p)
}

// UpdateProfile 修改性别/年龄，字段均为空时不做任何事
// @Router /api/v1/users/profile [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.userService.UpdateProfile(c.Request.Context(), authFrom(c), req.Gender, req.Age); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// SoftDelete 注销账号
// @Router /api/v1/users/{id} [delete]
func (h *Handler) SoftDelete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	deleted, err := h.userService.SoftDelete(c.Request.Context(), authFrom(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": deleted})
}
