package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bill-gateway-api/internal/constant"
	"bill-gateway-api/internal/middleware"
	"bill-gateway-api/internal/utils"
)

func traceID(c *gin.Context) string {
	return c.GetString(middleware.TraceIDKey)
}

func ok(c *gin.Context, data interface{}) {
	resp := utils.Success(data)
	resp.TraceID = traceID(c)
	c.JSON(http.StatusOK, resp)
}

// fail 错误码取自 error 链；网关业务错误附带网关原始响应
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	resp := utils.ErrorWithTrace(constant.CodeOf(err), traceID(c))
	var be *constant.GatewayBusinessError
	if errors.As(err, &be) {
		resp.Data = gin.H{
			"http_status":      be.StatusCode,
			"status":           be.Status,
			"reason":           be.Reason,
			"gateway_response": be.Body,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// failBind 参数绑定失败，校验错误逐项返回字段与原因
func failBind(c *gin.Context, err error) {
	_ = c.Error(err)
	resp := utils.ErrorWithTrace(constant.CodeInvalidParams, traceID(c))
	if fields := utils.ValidationErrors(err); len(fields) > 0 {
		resp.Data = gin.H{"errors": fields}
	}
	c.JSON(http.StatusOK, resp)
}

func failCode(c *gin.Context, code int) {
	c.JSON(http.StatusOK, utils.ErrorWithTrace(code, traceID(c)))
}
