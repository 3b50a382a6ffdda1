package billingmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayBillRequest 缴费请求审计
type PayBillRequest struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	Payload      string          `gorm:"column:payload;type:text" json:"payload"`
	RefID        string          `gorm:"column:ref_id;size:64;index" json:"refId"`
	RefnoAck     string          `gorm:"column:refno_ack;size:128" json:"refnoAck"`
	PydTrxnRefID string          `gorm:"column:pyd_trxn_refid;size:64" json:"pydTrxnRefid"`
	PydAmnt      decimal.Decimal `gorm:"column:pyd_amnt;type:decimal(18,2)" json:"pydAmnt"`
	CreatedAt    time.Time       `gorm:"column:created_at" json:"createdAt"`
}

func (PayBillRequest) TableName() string { return "b_pay_bill_request" }

// PayBillResponse 缴费响应审计
type PayBillResponse struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	PayBillRequestID uint64    `gorm:"column:pay_bill_request_id;index" json:"payBillRequestId,string"`
	Response         string    `gorm:"column:response;type:text" json:"response"`
	RefID            string    `gorm:"column:ref_id;size:64;index" json:"refId"`
	TrxID            string    `gorm:"column:trx_id;size:64" json:"trxId"`
	Status           string    `gorm:"column:status;size:32" json:"status"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (PayBillResponse) TableName() string { return "b_pay_bill_response" }
