package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bill-gateway-api/internal/middleware"
	"bill-gateway-api/internal/utils"
)

type Handlers struct {
	Biller *BillerHandler
	Bill   *BillHandler
	Health *HealthHandler
}

// NewRouter 注册全部路由，/api/v1 需要内部 token
func NewRouter(h Handlers, internalToken string, log *logrus.Logger) *gin.Engine {
	utils.RegisterValidators()
	r := gin.New()
	r.Use(middleware.TraceID(), middleware.Recover(log), middleware.RequestLogger(log))

	r.GET("/healthz", h.Health.Healthz)

	v1 := r.Group("/api/v1", middleware.InternalAuth(internalToken))
	{
		v1.GET("/billers", h.Biller.List)
		v1.POST("/billers/sync", h.Biller.Sync)

		v1.POST("/bills/fetch", h.Bill.Fetch)
		v1.POST("/bills/pay", h.Bill.Pay)
		v1.POST("/bills/status", h.Bill.Status)
		v1.GET("/bills/:ref_id/audit", h.Bill.Audit)
	}
	return r
}
