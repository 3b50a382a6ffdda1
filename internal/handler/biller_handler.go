package handler

import (
	"context"

	"github.com/gin-gonic/gin"
)

type BillerSource interface {
	FetchBillersInformation(ctx context.Context) (map[string]any, error)
	FetchBillersInformationFromCache(ctx context.Context) (map[string]any, error)
}

// BillerHandler 账单方目录
type BillerHandler struct {
	svc BillerSource
}

func NewBillerHandler(svc BillerSource) *BillerHandler {
	return &BillerHandler{svc: svc}
}

// List 读缓存，未命中时请求网关
func (h *BillerHandler) List(c *gin.Context) {
	data, err := h.svc.FetchBillersInformationFromCache(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}

// Sync 强制从网关刷新
func (h *BillerHandler) Sync(c *gin.Context) {
	data, err := h.svc.FetchBillersInformation(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, data)
}
