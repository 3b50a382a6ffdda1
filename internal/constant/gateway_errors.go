package constant

import (
	"context"
	"errors"
	"fmt"
)

// NetworkError 网关请求在重试耗尽后仍失败（连接失败、超时、持续 502/503/504）
type NetworkError struct {
	URL        string
	Attempts   int
	StatusCode int // 最后一次响应码，连接失败时为 0
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway network error: %s: status %d after %d attempts", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("gateway network error: %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Code() int {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return CodeUpstreamTimeout
	}
	return CodeUpstreamNetworkError
}

func (e *NetworkError) Message() string { return ErrorMessages[e.Code()].EN }

// CodecError 报文加解密失败，不可重试
type CodecError struct {
	Op  string // encrypt | decrypt
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("gateway codec %s failed: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

func (e *CodecError) Code() int { return CodeUpstreamDataFormatError }

func (e *CodecError) Message() string { return ErrorMessages[CodeUpstreamDataFormatError].EN }

// UnsupportedDurationFormatError 令牌有效期不是 <int>[smh]
type UnsupportedDurationFormatError struct {
	Value string
}

func (e *UnsupportedDurationFormatError) Error() string {
	return fmt.Sprintf("unsupported duration format: %q", e.Value)
}

func (e *UnsupportedDurationFormatError) Code() int { return CodeUpstreamTokenFormat }

func (e *UnsupportedDurationFormatError) Message() string {
	return ErrorMessages[CodeUpstreamTokenFormat].EN
}

// GatewayBusinessError 网关返回了业务失败，Body 保留解密后（或原始）报文
type GatewayBusinessError struct {
	Op         string
	StatusCode int
	Status     string
	Reason     string
	Body       any
}

func (e *GatewayBusinessError) Error() string {
	return fmt.Sprintf("gateway %s rejected: http=%d status=%s reason=%s", e.Op, e.StatusCode, e.Status, e.Reason)
}

func (e *GatewayBusinessError) Code() int {
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return CodeUpstreamRejected
	}
	return CodeUpstreamError
}

func (e *GatewayBusinessError) Message() string { return ErrorMessages[e.Code()].EN }
