package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"bill-gateway-api/internal/cache"
	"bill-gateway-api/internal/config"
	"bill-gateway-api/internal/constant"
	"bill-gateway-api/internal/dto"
	rediskey "bill-gateway-api/internal/types/redis-key"
	"bill-gateway-api/internal/utils"
)

// HttpSender 出站请求
type HttpSender interface {
	Send(ctx context.Context, method, url string, body []byte, headers map[string]string) (*utils.RawResponse, error)
}

var durationMultiplier = map[byte]int{'s': 1, 'm': 60, 'h': 3600}

// ConvertDurationToSeconds 解析网关令牌有效期，如 90s / 5m / 2h
func ConvertDurationToSeconds(duration string) (int, error) {
	if len(duration) < 2 {
		return 0, &constant.UnsupportedDurationFormatError{Value: duration}
	}
	multiplier, ok := durationMultiplier[duration[len(duration)-1]]
	if !ok {
		return 0, &constant.UnsupportedDurationFormatError{Value: duration}
	}
	n, err := strconv.Atoi(duration[:len(duration)-1])
	if err != nil || n < 0 {
		return 0, &constant.UnsupportedDurationFormatError{Value: duration}
	}
	return n * multiplier, nil
}

// TokenService 网关令牌获取与缓存
type TokenService struct {
	cfg   config.GatewayCfg
	key   string
	http  HttpSender
	store cache.Store
	group singleflight.Group
	log   *logrus.Logger
}

func NewTokenService(cfg config.GatewayCfg, project string, sender HttpSender, store cache.Store, log *logrus.Logger) *TokenService {
	return &TokenService{
		cfg:   cfg,
		key:   rediskey.GatewayTokenKey(project),
		http:  sender,
		store: store,
		log:   log,
	}
}

// GetOrRefreshToken 缓存命中直接返回，否则向网关申请；并发刷新合并为一次请求。
// 共享的刷新不随发起者取消，每个调用方只按自己的 ctx 放弃等待
func (s *TokenService) GetOrRefreshToken(ctx context.Context) (string, error) {
	tok, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.log.WithError(err).Warn("[Gateway-Token] read cached token failed, refreshing")
	} else if ok && tok != "" {
		return tok, nil
	}

	ch := s.group.DoChan(s.key, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout())
		defer cancel()
		return s.refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func (s *TokenService) refreshTimeout() time.Duration {
	if s.cfg.MaxElapsed > 0 {
		return s.cfg.MaxElapsed
	}
	if s.cfg.Timeout > 0 {
		return s.cfg.Timeout
	}
	return 90 * time.Second
}

// InvalidateToken 网关返回 401 时丢弃缓存令牌
func (s *TokenService) InvalidateToken(ctx context.Context) error {
	return s.store.Delete(ctx, s.key)
}

func (s *TokenService) refresh(ctx context.Context) (string, error) {
	url := s.cfg.BaseURL + s.cfg.TokenPath
	body, err := json.Marshal(dto.TokenRequest{UserID: s.cfg.UserID, PassKey: s.cfg.PassKey})
	if err != nil {
		return "", err
	}

	resp, err := s.http.Send(ctx, http.MethodPost, url, body, map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", &constant.GatewayBusinessError{Op: "token", StatusCode: resp.StatusCode, Reason: "token request rejected", Body: string(resp.Body)}
	}

	var tr dto.TokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return "", &constant.CodecError{Op: "decode token", Err: err}
	}
	if tr.SecurityToken == "" || tr.TokenExpTime == "" {
		return "", &constant.GatewayBusinessError{Op: "token", StatusCode: resp.StatusCode, Reason: "token or expiry missing", Body: string(resp.Body)}
	}

	seconds, err := ConvertDurationToSeconds(tr.TokenExpTime)
	if err != nil {
		return "", err
	}
	if seconds > 0 {
		if err := s.store.Set(ctx, s.key, tr.SecurityToken, time.Duration(seconds)*time.Second); err != nil {
			s.log.WithError(err).Warn("[Gateway-Token] cache token failed")
		}
	}

	s.log.WithField("expires_in", seconds).Info("[Gateway-Token] token refreshed")
	return tr.SecurityToken, nil
}
