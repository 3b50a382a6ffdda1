package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bill-gateway-api/internal/constant"
	"bill-gateway-api/internal/utils"
)

func Recover(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"path":     c.Request.URL.Path,
					"trace_id": c.GetString(TraceIDKey),
					"panic":    r,
				}).Error("[HTTP] panic recovered\n" + string(debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					utils.ErrorWithTrace(constant.CodeSystemError, c.GetString(TraceIDKey)))
			}
		}()
		c.Next()
	}
}
