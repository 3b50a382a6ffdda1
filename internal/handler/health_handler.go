package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bill-gateway-api/internal/constant"
	"bill-gateway-api/internal/health"
	"bill-gateway-api/internal/utils"
)

// Check 依赖探活
type Check func(ctx context.Context) error

type GatewayHealth interface {
	Snapshot(ctx context.Context, ops ...string) map[string]health.OpStatus
}

type HealthHandler struct {
	checks  map[string]Check
	gateway GatewayHealth
	ops     []string
}

func NewHealthHandler(checks map[string]Check, gateway GatewayHealth, ops []string) *HealthHandler {
	return &HealthHandler{checks: checks, gateway: gateway, ops: ops}
}

type healthResp struct {
	Components map[string]string          `json:"components"`
	Gateway    map[string]health.OpStatus `json:"gateway,omitempty"`
}

// Healthz 依赖全部可用返回 200，否则 503；网关成功率仅展示
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResp{Components: make(map[string]string, len(h.checks))}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Components[name] = err.Error()
			healthy = false
			continue
		}
		resp.Components[name] = "ok"
	}
	if h.gateway != nil {
		resp.Gateway = h.gateway.Snapshot(ctx, h.ops...)
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, utils.ErrorWithData(constant.CodeServiceUnavailable, resp))
		return
	}
	c.JSON(http.StatusOK, utils.Success(resp))
}
