package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/recipehub/pkg/logger"
	"github.com/d60-Lab/recipehub/pkg/response"
)

// Sentry 为每个请求绑定独立 hub，并把 panic 上报后转成 500
func Sentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		hub.Scope().SetTag("request_id", c.GetString("request_id"))
		c.Request = c.Request.WithContext(sentry.SetHubOnContext(c.Request.Context(), hub))

		defer func() {
			if r := recover(); r != nil {
				if r == http.ErrAbortHandler {
					panic(r)
				}
				hub.RecoverWithContext(c.Request.Context(), r)
				logger.Error("panic recovered", zap.String("path", c.Request.URL.Path), zap.Any("panic", r))
				response.Error(c, http.StatusInternalServerError, fmt.Sprintf("internal server error (%s)", c.GetString("request_id")))
			}
		}()
		c.Next()
	}
}
