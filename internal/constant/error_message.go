package constant

// ErrorInfo 错误信息结构
type ErrorInfo struct {
	CN string `json:"cn"` // 中文错误信息
	EN string `json:"en"` // 英文错误信息
}

// ErrorMessages 错误信息映射
var ErrorMessages = map[int]ErrorInfo{
	CodeSuccess:            {"操作成功", "Success"},
	CodeSystemError:        {"系统错误", "System error"},
	CodeDatabaseError:      {"数据库错误", "Database error"},
	CodeRedisError:         {"缓存服务错误", "Cache error"},
	CodeInternalError:      {"内部服务错误", "Internal error"},
	CodeServiceUnavailable: {"服务暂时不可用", "Service unavailable"},
	CodeTimeout:            {"请求超时", "Request timeout"},

	CodeInvalidParams: {"参数格式错误", "Invalid parameters"},
	CodeMissingParams: {"缺少必要参数", "Missing parameters"},
	CodeUnauthorized:  {"未授权访问", "Unauthorized"},

	CodeBillNotFound:    {"账单记录不存在", "Bill record not found"},
	CodeBillAlreadyPaid: {"账单已支付", "Bill is already paid"},

	CodeUpstreamError:           {"账单网关返回错误", "Biller gateway error"},
	CodeUpstreamTimeout:         {"账单网关请求超时", "Biller gateway timeout"},
	CodeUpstreamRejected:        {"账单网关拒绝请求", "Biller gateway rejected the request"},
	CodeUpstreamNetworkError:    {"账单网关网络异常", "Biller gateway network error"},
	CodeUpstreamDataFormatError: {"账单网关报文格式错误", "Biller gateway payload malformed"},
	CodeUpstreamTokenFormat:     {"网关令牌有效期格式不支持", "Unsupported token duration format"},
}
