package constant

// 账单网关错误码 (3xxx)
const (
	// CodeUpstreamError 网关通用错误，网关在 2xx 响应里返回了失败状态，或返回了非 2xx
	CodeUpstreamError = 3000

	// CodeUpstreamTimeout 调用网关超时
	CodeUpstreamTimeout = 3001

	// CodeUpstreamRejected 网关拒绝（鉴权失败、令牌失效）
	CodeUpstreamRejected = 3002

	// CodeUpstreamNetworkError 网络异常，重试耗尽后仍失败
	CodeUpstreamNetworkError = 3005

	// CodeUpstreamDataFormatError 报文加解密失败或结构无法解析
	CodeUpstreamDataFormatError = 3006

	// CodeUpstreamTokenFormat 网关返回的令牌有效期格式不支持
	CodeUpstreamTokenFormat = 3007
)
