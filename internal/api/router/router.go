package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/api/handler"
	"github.com/d60-Lab/recipehub/internal/api/middleware"
)

// Setup 组装中间件与路由
func Setup(cfg *config.Config, h *handler.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(), middleware.Sentry())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.PATCH("/profile", h.UpdateProfile)
		users.GET("/:id", h.GetProfile)
		users.DELETE("/:id", h.SoftDelete)
		users.POST("/:id/follow", h.ToggleFollow)
		users.GET("/:id/following", h.ListFollowing)
		users.GET("/:id/followers", h.ListFollowers)

		recipes := v1.Group("/recipes")
		recipes.GET("", h.SearchRecipes)
		recipes.POST("", h.CreateRecipe)
		recipes.GET("/:id", h.GetRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
		recipes.GET("/:id/name", h.GetRecipeName)
		recipes.PATCH("/:id/times", h.UpdateTimes)
		recipes.POST("/:id/refresh-rating", h.RefreshRating)
		recipes.GET("/:id/reviews", h.ListReviews)
		recipes.POST("/:id/reviews", h.AddReview)
		recipes.PUT("/:id/reviews/:reviewId", h.EditReview)
		recipes.DELETE("/:id/reviews/:reviewId", h.DeleteReview)

		reviews := v1.Group("/reviews")
		reviews.POST("/:id/like", h.LikeReview)
		reviews.DELETE("/:id/like", h.UnlikeReview)

		analytics := v1.Group("/analytics")
		analytics.GET("/closest-calorie-pair", h.ClosestCaloriePair)
		analytics.GET("/top-complex-recipes", h.TopComplexRecipes)
		analytics.GET("/highest-follow-ratio", h.HighestFollowRatio)

		v1.GET("/feed", h.Feed)
	}
	return r
}
