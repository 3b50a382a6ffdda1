package idgen

import (
	"encoding/base32"

	"github.com/google/uuid"
)

// GatewayIDLength 网关 trx_id / ref_id 长度，例如 2VAFKAXEQJIIYHJVHZZIBI
const GatewayIDLength = 22

var gatewayEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewTransactionID 每个出站报文一个新的交易号
func NewTransactionID() string {
	return newGatewayID()
}

// NewReferenceID 每次账单查询生成一次，后续缴费/查询状态沿用
func NewReferenceID() string {
	return newGatewayID()
}

func newGatewayID() string {
	u := uuid.New()
	return gatewayEncoding.EncodeToString(u[:])[:GatewayIDLength]
}
