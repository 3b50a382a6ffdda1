package rediskey

// GatewayTokenKey 网关安全令牌
func GatewayTokenKey(project string) string {
	return project + ":gateway:token"
}

// BillersInfoKey 账单方目录
func BillersInfoKey(project string) string {
	return project + ":gateway:billers_info"
}

// GatewaySuccessRateKey 网关操作成功率
func GatewaySuccessRateKey(project, op string) string {
	return project + ":gateway:success_rate:" + op
}

// GatewayDegradedKey 成功率低于阈值时的降级标记
func GatewayDegradedKey(project, op string) string {
	return project + ":gateway:degraded:" + op
}
