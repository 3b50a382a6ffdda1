package timeutil

import (
	"time"
	_ "time/tzdata"
)

// GatewayLayout 网关报文时间格式 2023-11-29T16:38:00+06:00
const GatewayLayout = "2006-01-02T15:04:05-07:00"

// NowUTC 返回当前 UTC 时间
func NowUTC() time.Time {
	return time.Now().UTC()
}

// NowIn 返回指定时区的当前时间
func NowIn(tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}

// LoadLocation 加载时区，失败回退 UTC
func LoadLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatGateway 格式化为网关报文时间
func FormatGateway(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(GatewayLayout)
}

// FormatISO8601 格式化为 ISO8601 / RFC3339 格式 (2025-10-03T06:45:21Z)
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseISO8601 解析 ISO8601 / RFC3339 时间字符串
func ParseISO8601(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
