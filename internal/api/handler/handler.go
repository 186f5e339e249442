package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/recipehub/internal/model"
	"github.com/d60-Lab/recipehub/internal/service"
	"github.com/d60-Lab/recipehub/pkg/response"
)

// 认证信息通过请求头原样传入服务层
const (
	HeaderUserID     = "X-User-ID"
	HeaderCredential = "X-Credential"
)

var errIDExhausted = errors.New("id allocation exhausted")

// Services 处理器依赖的全部服务
type Services struct {
	Users     service.UserService
	Relations service.RelationshipService
	Recipes   service.RecipeService
	Reviews   service.ReviewService
	Analytics service.AnalyticsService
}

type Handler struct {
	userService      service.UserService
	relService       service.RelationshipService
	recipeService    service.RecipeService
	reviewService    service.ReviewService
	analyticsService service.AnalyticsService
}

func NewHandler(s Services) *Handler {
	return &Handler{
		userService:      s.Users,
		relService:       s.Relations,
		recipeService:    s.Recipes,
		reviewService:    s.Reviews,
		analyticsService: s.Analytics,
	}
}

// RegisterValidators 注册自定义校验规则 gender（不区分大小写的 Male/Female）
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	return v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		g := strings.TrimSpace(fl.Field().String())
		return strings.EqualFold(g, model.GenderMale) || strings.EqualFold(g, model.GenderFemale)
	})
}

func authFrom(c *gin.Context) model.Auth {
	id, _ := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
	return model.Auth{UserID: id, Credential: c.GetHeader(HeaderCredential)}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return n
}

// fail 按错误类型映射响应码
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
