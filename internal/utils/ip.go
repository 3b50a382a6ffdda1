package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

var clientIPHeaders = []string{
	"X-Real-IP",       // Nginx
	"X-Forwarded-For", // 多层代理取第一个
}

// GetRealClientIP 获取调用方真实 IP，用于请求日志
func GetRealClientIP(c *gin.Context) string {
	for _, header := range clientIPHeaders {
		for _, ip := range strings.Split(c.Request.Header.Get(header), ",") {
			ip = strings.TrimSpace(ip)
			if ip != "" && net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	ip, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
	if err == nil && net.ParseIP(ip) != nil {
		return ip
	}
	return c.ClientIP()
}
