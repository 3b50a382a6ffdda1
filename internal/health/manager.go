package health

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bill-gateway-api/internal/cache"
	"bill-gateway-api/internal/constant"
	rediskey "bill-gateway-api/internal/types/redis-key"
)

const initialRate = 100.0

// GatewayHealthManager 按网关操作统计成功率，低于阈值打降级标记
type GatewayHealthManager struct {
	store     cache.Store
	project   string
	strategy  SuccessRateStrategy
	threshold float64 // 降级阈值，例如 60.0
	ttl       time.Duration
	log       *logrus.Logger

	mu sync.Mutex
}

func NewGatewayHealthManager(store cache.Store, project string, strategy SuccessRateStrategy, threshold float64, ttl time.Duration, log *logrus.Logger) *GatewayHealthManager {
	if strategy == nil {
		strategy = &EWMAStrategy{Alpha: 0.1}
	}
	return &GatewayHealthManager{
		store:     store,
		project:   project,
		strategy:  strategy,
		threshold: threshold,
		ttl:       ttl,
		log:       log,
	}
}

// IsGatewayFault 网络、报文与网关 5xx 错误；业务拒绝、调用方取消和本地存储错误不计入
func IsGatewayFault(err error) bool {
	var (
		ne *constant.NetworkError
		ce *constant.CodecError
		de *constant.UnsupportedDurationFormatError
		be *constant.GatewayBusinessError
	)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.As(err, &ne), errors.As(err, &ce), errors.As(err, &de):
		return true
	case errors.As(err, &be):
		return be.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// Record 记录一次调用结果；调用方主动取消的调用不计入成功率
func (m *GatewayHealthManager) Record(ctx context.Context, op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	success := !IsGatewayFault(err)
	newRate := m.strategy.Update(m.rate(ctx, op), success)

	if newRate < m.threshold {
		if serr := m.store.Set(ctx, rediskey.GatewayDegradedKey(m.project, op), "1", m.ttl); serr != nil {
			m.log.WithError(serr).Warn("[Gateway-Health] set degraded flag failed")
		}
	} else if success {
		_ = m.store.Delete(ctx, rediskey.GatewayDegradedKey(m.project, op))
	}
	if serr := m.store.Set(ctx, rediskey.GatewaySuccessRateKey(m.project, op), strconv.FormatFloat(newRate, 'f', 2, 64), m.ttl); serr != nil {
		m.log.WithError(serr).Warn("[Gateway-Health] save success rate failed")
	}
}

// IsDegraded 降级标记存在
func (m *GatewayHealthManager) IsDegraded(ctx context.Context, op string) bool {
	v, ok, err := m.store.Get(ctx, rediskey.GatewayDegradedKey(m.project, op))
	return err == nil && ok && v == "1"
}

// OpStatus 单个操作的健康快照
type OpStatus struct {
	SuccessRate float64 `json:"success_rate"`
	Degraded    bool    `json:"degraded"`
}

func (m *GatewayHealthManager) Snapshot(ctx context.Context, ops ...string) map[string]OpStatus {
	out := make(map[string]OpStatus, len(ops))
	for _, op := range ops {
		out[op] = OpStatus{SuccessRate: m.rate(ctx, op), Degraded: m.IsDegraded(ctx, op)}
	}
	return out
}

func (m *GatewayHealthManager) rate(ctx context.Context, op string) float64 {
	v, ok, err := m.store.Get(ctx, rediskey.GatewaySuccessRateKey(m.project, op))
	if err != nil || !ok {
		return initialRate
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return initialRate
	}
	return f
}
