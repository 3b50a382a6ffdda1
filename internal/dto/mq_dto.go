package dto

import "github.com/shopspring/decimal"

// 账单事件路由键
const (
	EventBillFetched = "bill.fetched"
	EventBillPaid    = "bill.paid"
)

// BillEvent 账单生命周期事件
type BillEvent struct {
	Type       string          `json:"type"`
	RefID      string          `json:"ref_id"`
	TrxID      string          `json:"trx_id"`
	BllrID     string          `json:"bllr_id,omitempty"`
	RefnoAck   string          `json:"refno_ack,omitempty"`
	Amount     decimal.Decimal `json:"amount,omitempty"`
	AlreadyPd  bool            `json:"already_paid,omitempty"`
	OccurredAt int64           `json:"occurred_at"`
}
