package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"bill-gateway-api/internal/utils"
)

// 网关报文名称
const (
	MsgFetchBillers = "FETCH_MDM_DATA_REQ"
	MsgFetchBill    = "FETCH_BLL_REQ"
	MsgPayBill      = "UPDT_BLL_PYMNT_REQ"
	MsgCheckStatus  = "CHCK_BLL_STTS_REQ"
)

const (
	// PayBillMode 缴费报文 bllr_inf.mode 固定值
	PayBillMode = "SAPI"
	// BillPaidFlag bllr_inf.is_bll_pd 为 Y 表示账单已缴
	BillPaidFlag = "Y"
	// RespStatusSuccess resp_status.sts 成功值
	RespStatusSuccess = "SUCCESS"
)

type EnvelopeHeader struct {
	Name      string `json:"nm"`
	Version   string `json:"ver"`
	Timestamp string `json:"tms"`
	RefID     string `json:"ref_id,omitempty"`
	NodeID    string `json:"nd_id"`
}

type EnvelopeTrx struct {
	TrxID    string `json:"trx_id"`
	TrxTms   string `json:"trx_tms"`
	RefnoAck string `json:"refno_ack,omitempty"`
}

type UserInfo struct {
	SyndicateID string `json:"syndct_id"`
}

type PaymentInfo struct {
	PydTrxnRefID string          `json:"pyd_trxn_refid"`
	PydTms       string          `json:"pyd_tms"`
	PydAmnt      decimal.Decimal `json:"pyd_amnt"`
}

// GatewayEnvelope 出站报文
type GatewayEnvelope struct {
	Hdrs    EnvelopeHeader `json:"hdrs"`
	Trx     EnvelopeTrx    `json:"trx"`
	BllInf  map[string]any `json:"bll_inf,omitempty"`
	PydInf  *PaymentInfo   `json:"pyd_inf,omitempty"`
	BllrInf map[string]any `json:"bllr_inf,omitempty"`
	UsrInf  *UserInfo      `json:"usr_inf,omitempty"`
}

type ResponseStatus struct {
	Status   utils.StringOrNumber `json:"sts"`
	Code     utils.StringOrNumber `json:"rspns_cd"`
	Message  utils.FlexibleMsg    `json:"rspns_msg"`
	RefnoAck utils.StringOrNumber `json:"refno_ack"`
}

// ResponseHeader 响应头，网关可能把编号类字段返回成数字
type ResponseHeader struct {
	Name      utils.StringOrNumber `json:"nm"`
	Version   utils.StringOrNumber `json:"ver"`
	Timestamp utils.StringOrNumber `json:"tms"`
	RefID     utils.StringOrNumber `json:"ref_id"`
	NodeID    utils.StringOrNumber `json:"nd_id"`
}

type ResponseTrx struct {
	TrxID    utils.StringOrNumber `json:"trx_id"`
	TrxTms   utils.StringOrNumber `json:"trx_tms"`
	RefnoAck utils.StringOrNumber `json:"refno_ack"`
}

// GatewayResponse 解密后的网关响应，Raw 保留完整报文
type GatewayResponse struct {
	Hdrs       ResponseHeader `json:"hdrs"`
	Trx        ResponseTrx    `json:"trx"`
	BllrInf    map[string]any `json:"bllr_inf"`
	RespStatus ResponseStatus `json:"resp_status"`

	Raw map[string]any `json:"-"`
}

// ParseGatewayResponse 从解密结果构造类型化视图
func ParseGatewayResponse(raw map[string]any) (*GatewayResponse, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var resp GatewayResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, err
	}
	resp.Raw = raw
	return &resp, nil
}

// IsBillPaid bllr_inf.is_bll_pd == "Y"
func (r *GatewayResponse) IsBillPaid() bool {
	if r.BllrInf == nil {
		return false
	}
	s, _ := r.BllrInf["is_bll_pd"].(string)
	return s == BillPaidFlag
}

// RefnoAck 优先取 resp_status.refno_ack，缺省时取 trx.refno_ack
func (r *GatewayResponse) RefnoAck() string {
	if r.RespStatus.RefnoAck != "" {
		return string(r.RespStatus.RefnoAck)
	}
	return string(r.Trx.RefnoAck)
}

// Failed resp_status.sts 存在且不是 SUCCESS
func (r *GatewayResponse) Failed() bool {
	s := string(r.RespStatus.Status)
	return s != "" && s != RespStatusSuccess
}

// TokenRequest 令牌接口请求（明文 JSON）
type TokenRequest struct {
	UserID  string `json:"user_id"`
	PassKey string `json:"pass_key"`
}

// TokenResponse 令牌接口响应
type TokenResponse struct {
	SecurityToken string `json:"security_token"`
	TokenExpTime  string `json:"token_exp_time"`
}
