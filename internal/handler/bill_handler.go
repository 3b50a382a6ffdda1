package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"bill-gateway-api/internal/constant"
	"bill-gateway-api/internal/dto"
	billingmodel "bill-gateway-api/internal/model/billing"
	"bill-gateway-api/internal/service"
	"bill-gateway-api/internal/utils"
)

type BillGateway interface {
	FetchCustomerBillInformation(ctx context.Context, fields map[string]any) (*dto.FetchBillResult, error)
	PayBill(ctx context.Context, p service.PayBillParams) (map[string]any, error)
	CheckBillStatus(ctx context.Context, p service.CheckBillStatusParams) (map[string]any, error)
}

// AuditReader 审计记录查询
type AuditReader interface {
	ListFetchBillRequests(ctx context.Context, refID string) ([]billingmodel.FetchBillRequest, error)
	ListFetchBillResponses(ctx context.Context, refID string) ([]billingmodel.FetchBillResponse, error)
	ListPayBillRequests(ctx context.Context, refID string) ([]billingmodel.PayBillRequest, error)
	ListPayBillResponses(ctx context.Context, refID string) ([]billingmodel.PayBillResponse, error)
}

// BillHandler 账单查询、缴费、状态与审计
type BillHandler struct {
	svc   BillGateway
	audit AuditReader
}

func NewBillHandler(svc BillGateway, audit AuditReader) *BillHandler {
	return &BillHandler{svc: svc, audit: audit}
}

func (h *BillHandler) Fetch(c *gin.Context) {
	var req dto.FetchBillReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	fields := utils.CloneMap(req.BllInf)
	fields["bllr_id"] = req.BllrID

	res, err := h.svc.FetchCustomerBillInformation(c.Request.Context(), fields)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

func (h *BillHandler) Pay(c *gin.Context) {
	var req dto.PayBillReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	raw, err := h.svc.PayBill(c.Request.Context(), service.PayBillParams{
		RefID:        req.RefID,
		RefnoAck:     req.RefnoAck,
		PaymentRefID: req.PydTrxnRefID,
		Amount:       req.PydAmnt,
		BillerInfo:   req.BllrInf,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, raw)
}

func (h *BillHandler) Status(c *gin.Context) {
	var req dto.CheckBillStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	raw, err := h.svc.CheckBillStatus(c.Request.Context(), service.CheckBillStatusParams{
		RefID:    req.RefID,
		BillerID: req.BllrID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, raw)
}

// Audit 某个 ref_id 的查询与缴费留痕
func (h *BillHandler) Audit(c *gin.Context) {
	refID := strings.TrimSpace(c.Param("ref_id"))
	if refID == "" {
		failCode(c, constant.CodeMissingParams)
		return
	}

	var records dto.AuditRecords
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		records.FetchRequests, err = h.audit.ListFetchBillRequests(ctx, refID)
		return err
	})
	g.Go(func() (err error) {
		records.FetchResponses, err = h.audit.ListFetchBillResponses(ctx, refID)
		return err
	})
	g.Go(func() (err error) {
		records.PayRequests, err = h.audit.ListPayBillRequests(ctx, refID)
		return err
	})
	g.Go(func() (err error) {
		records.PayResponses, err = h.audit.ListPayBillResponses(ctx, refID)
		return err
	})
	if err := g.Wait(); err != nil {
		_ = c.Error(err)
		failCode(c, constant.CodeDatabaseError)
		return
	}
	if records.Empty() {
		failCode(c, constant.CodeBillNotFound)
		return
	}

	resp, err := dto.NewBillAuditResp(refID, &records)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, resp)
}
