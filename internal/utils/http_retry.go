package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy 重试策略：最多 MaxAttempts 次，第 n 次失败后等待 BackoffFactor * 2^(n-1)
type RetryPolicy struct {
	MaxAttempts     int
	BackoffFactor   time.Duration
	StatusForcelist []int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		BackoffFactor:   time.Second,
		StatusForcelist: []int{502, 503, 504},
	}
}

// Backoff 第 attempt 次失败后的等待时长
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.BackoffFactor <= 0 {
		return 0
	}
	return p.BackoffFactor * time.Duration(1<<uint(attempt-1))
}

func (p RetryPolicy) retryable(status int) bool {
	for _, s := range p.StatusForcelist {
		if s == status {
			return true
		}
	}
	return false
}

// DoWithRetry 执行带重试逻辑的函数；fn 返回 (是否可重试, 错误)
func DoWithRetry(ctx context.Context, p RetryPolicy, sleep func(context.Context, time.Duration) error, fn func(attempt int) (bool, error)) error {
	if sleep == nil {
		sleep = sleepCtx
	}
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		var retry bool
		retry, err = fn(attempt)
		if err == nil || !retry {
			return err
		}
		// 最后一次失败则直接返回
		if attempt == p.MaxAttempts {
			break
		}
		if serr := sleep(ctx, p.Backoff(attempt)); serr != nil {
			return fmt.Errorf("context canceled during retry: %w", err)
		}
	}
	return err
}
