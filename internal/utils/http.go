package utils

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"bill-gateway-api/internal/constant"
)

// RawResponse 网关原始响应
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsSuccess 2xx
func (r *RawResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// HttpClientOptions 出站请求参数
type HttpClientOptions struct {
	Timeout            time.Duration // 单次请求超时
	MaxElapsed         time.Duration // 整个调用（含重试）上限
	InsecureSkipVerify bool
	Retry              RetryPolicy
}

// HttpClient 带重试的出站 HTTP 客户端
type HttpClient struct {
	client *http.Client
	opts   HttpClientOptions
	log    *logrus.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewHttpClient(opts HttpClientOptions, log *logrus.Logger) *HttpClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &HttpClient{
		client: &http.Client{Timeout: opts.Timeout, Transport: transport},
		opts:   opts,
		log:    log,
		sleep:  sleepCtx,
	}
}

// Send 发送请求；502/503/504 与连接失败按策略重试，其他非 2xx 原样返回
func (h *HttpClient) Send(ctx context.Context, method, url string, body []byte, headers map[string]string) (*RawResponse, error) {
	if h.opts.MaxElapsed > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.MaxElapsed)
		defer cancel()
	}

	var (
		resp     *RawResponse
		lastErr  error
		attempts int
	)
	err := DoWithRetry(ctx, h.opts.Retry, h.sleep, func(attempt int) (bool, error) {
		attempts = attempt
		r, err := h.do(ctx, method, url, body, headers)
		if err != nil {
			lastErr = err
			h.logf(logrus.WarnLevel, url, attempt, 0, err)
			// 调用方取消或超出总时长，不再重试
			return ctx.Err() == nil, err
		}
		resp = r
		if h.opts.Retry.retryable(r.StatusCode) {
			lastErr = fmt.Errorf("retryable status %d", r.StatusCode)
			h.logf(logrus.WarnLevel, url, attempt, r.StatusCode, lastErr)
			return true, lastErr
		}
		return false, nil
	})
	if err != nil {
		ne := &constant.NetworkError{URL: url, Attempts: attempts, Err: lastErr}
		if resp != nil && h.opts.Retry.retryable(resp.StatusCode) {
			ne.StatusCode = resp.StatusCode
		}
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(lastErr, ctxErr) {
			ne.Err = fmt.Errorf("%w: %v", ctxErr, lastErr)
		}
		return nil, ne
	}
	return resp, nil
}

func (h *HttpClient) do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request error: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request error: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response error: %w", err)
	}
	return &RawResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

func (h *HttpClient) logf(level logrus.Level, url string, attempt, status int, err error) {
	if h.log == nil {
		return
	}
	h.log.WithFields(logrus.Fields{
		"url":     url,
		"attempt": attempt,
		"max":     h.opts.Retry.MaxAttempts,
		"status":  status,
	}).Log(level, "[Gateway-HTTP] attempt failed: ", err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
