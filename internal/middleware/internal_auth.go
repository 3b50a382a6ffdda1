package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"bill-gateway-api/internal/constant"
	"bill-gateway-api/internal/utils"
)

const InternalTokenHeader = "X-Internal-Token"

// InternalAuth 内部调用方凭 X-Internal-Token 访问；未配置 token 时全部拒绝
func InternalAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(InternalTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.ErrorWithTrace(constant.CodeUnauthorized, c.GetString(TraceIDKey)))
			return
		}
		c.Next()
	}
}
