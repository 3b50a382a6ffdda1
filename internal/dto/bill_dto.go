package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"

	billingmodel "bill-gateway-api/internal/model/billing"
)

// AlreadyPaidMessage 账单已缴时返回给调用方的提示
const AlreadyPaidMessage = "bill is already paid"

// FetchBillReq 查询账单，BllInf 为账单方要求的字段（账户号、月份等）
type FetchBillReq struct {
	BllrID string         `json:"bllr_id" binding:"required"`
	BllInf map[string]any `json:"bll_inf"`
}

// FetchBillResult 查询结果：已缴时只有 Message，否则为完整报文
type FetchBillResult struct {
	AlreadyPaid bool           `json:"already_paid"`
	Message     string         `json:"message,omitempty"`
	RefID       string         `json:"ref_id"`
	RefnoAck    string         `json:"refno_ack,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

type PayBillReq struct {
	RefID        string          `json:"ref_id" binding:"required"`
	RefnoAck     string          `json:"refno_ack" binding:"required"`
	PydTrxnRefID string          `json:"pyd_trxn_refid" binding:"required"`
	PydAmnt      decimal.Decimal `json:"pyd_amnt" binding:"decimal_gt0"`
	BllrInf      map[string]any  `json:"bllr_inf" binding:"required"`
}

type CheckBillStatusReq struct {
	RefID  string `json:"ref_id" binding:"required"`
	BllrID string `json:"bllr_id" binding:"required"`
}

// FetchBillRequestView 审计查询返回，报文按原始 JSON 输出
type FetchBillRequestView struct {
	ID        uint64          `json:"id,string"`
	RefID     string          `json:"ref_id"`
	BllrID    string          `json:"bllr_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type FetchBillResponseView struct {
	ID                 uint64          `json:"id,string"`
	FetchBillRequestID uint64          `json:"fetch_bill_request_id,string"`
	RefID              string          `json:"ref_id"`
	TrxID              string          `json:"trx_id"`
	RefnoAck           string          `json:"refno_ack"`
	BllrInf            json.RawMessage `json:"bllr_inf,omitempty"`
	Response           json.RawMessage `json:"response,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

type PayBillRequestView struct {
	ID           uint64          `json:"id,string"`
	RefID        string          `json:"ref_id"`
	RefnoAck     string          `json:"refno_ack"`
	PydTrxnRefID string          `json:"pyd_trxn_refid"`
	PydAmnt      decimal.Decimal `json:"pyd_amnt"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type PayBillResponseView struct {
	ID               uint64          `json:"id,string"`
	PayBillRequestID uint64          `json:"pay_bill_request_id,string"`
	RefID            string          `json:"ref_id"`
	TrxID            string          `json:"trx_id"`
	Status           string          `json:"status"`
	Response         json.RawMessage `json:"response,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// BillAuditResp 某个 ref_id 的完整审计轨迹
type BillAuditResp struct {
	RefID          string                  `json:"ref_id"`
	FetchRequests  []FetchBillRequestView  `json:"fetch_requests"`
	FetchResponses []FetchBillResponseView `json:"fetch_responses"`
	PayRequests    []PayBillRequestView    `json:"pay_requests"`
	PayResponses   []PayBillResponseView   `json:"pay_responses"`
}

// AuditRecords 审计表原始记录
type AuditRecords struct {
	FetchRequests  []billingmodel.FetchBillRequest
	FetchResponses []billingmodel.FetchBillResponse
	PayRequests    []billingmodel.PayBillRequest
	PayResponses   []billingmodel.PayBillResponse
}

// Empty 既没有查询也没有缴费记录
func (r *AuditRecords) Empty() bool {
	return len(r.FetchRequests) == 0 && len(r.PayRequests) == 0
}

// NewBillAuditResp 审计记录转为返回结构
func NewBillAuditResp(refID string, r *AuditRecords) (*BillAuditResp, error) {
	resp := &BillAuditResp{
		RefID:          refID,
		FetchRequests:  []FetchBillRequestView{},
		FetchResponses: []FetchBillResponseView{},
		PayRequests:    []PayBillRequestView{},
		PayResponses:   []PayBillResponseView{},
	}
	if err := copier.Copy(&resp.FetchRequests, &r.FetchRequests); err != nil {
		return nil, fmt.Errorf("copy fetch requests failed: %w", err)
	}
	if err := copier.Copy(&resp.FetchResponses, &r.FetchResponses); err != nil {
		return nil, fmt.Errorf("copy fetch responses failed: %w", err)
	}
	if err := copier.Copy(&resp.PayRequests, &r.PayRequests); err != nil {
		return nil, fmt.Errorf("copy pay requests failed: %w", err)
	}
	if err := copier.Copy(&resp.PayResponses, &r.PayResponses); err != nil {
		return nil, fmt.Errorf("copy pay responses failed: %w", err)
	}
	return resp, nil
}
