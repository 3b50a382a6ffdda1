package constant

// 账单业务错误码 (2xxx)
const (
	CodeBillNotFound    = 2000 // 账单审计记录不存在
	CodeBillAlreadyPaid = 2001 // 账单已支付
)
