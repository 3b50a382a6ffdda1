package billingmodel

import "time"

// FetchBillRequest 账单查询请求审计，发送前写入
type FetchBillRequest struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	Payload   string    `gorm:"column:payload;type:text" json:"payload"`
	RefID     string    `gorm:"column:ref_id;size:64;index" json:"refId"`
	BllrID    string    `gorm:"column:bllr_id;size:64" json:"bllrId"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (FetchBillRequest) TableName() string { return "b_fetch_bill_request" }

// FetchBillResponse 账单查询响应审计，解密成功后写入
type FetchBillResponse struct {
	ID                 uint64    `gorm:"column:id;primaryKey;autoIncrement:false" json:"id,string"`
	FetchBillRequestID uint64    `gorm:"column:fetch_bill_request_id;index" json:"fetchBillRequestId,string"`
	Response           string    `gorm:"column:response;type:text" json:"response"`
	RefID              string    `gorm:"column:ref_id;size:64;index" json:"refId"`
	TrxID              string    `gorm:"column:trx_id;size:64" json:"trxId"`
	BllrInf            string    `gorm:"column:bllr_inf;type:text" json:"bllrInf"`
	RefnoAck           string    `gorm:"column:refno_ack;size:128" json:"refnoAck"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (FetchBillResponse) TableName() string { return "b_fetch_bill_response" }
