package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bill-gateway-api/internal/cache"
	"bill-gateway-api/internal/config"
	"bill-gateway-api/internal/constant"
	"bill-gateway-api/internal/dto"
	"bill-gateway-api/internal/event"
	"bill-gateway-api/internal/idgen"
	billingmodel "bill-gateway-api/internal/model/billing"
	rediskey "bill-gateway-api/internal/types/redis-key"
	"bill-gateway-api/internal/utils"
	"bill-gateway-api/internal/utils/timeutil"
)

// Codec 报文加解密
type Codec interface {
	Encrypt(payload any) ([]byte, error)
	Decrypt(data []byte) (map[string]any, error)
}

// TokenProvider 网关令牌
type TokenProvider interface {
	GetOrRefreshToken(ctx context.Context) (string, error)
	InvalidateToken(ctx context.Context) error
}

// AuditStore 审计记录写入
type AuditStore interface {
	CreateFetchBillRequest(ctx context.Context, m *billingmodel.FetchBillRequest) error
	CreateFetchBillResponse(ctx context.Context, m *billingmodel.FetchBillResponse) error
	CreatePayBillRequest(ctx context.Context, m *billingmodel.PayBillRequest) error
	CreatePayBillResponse(ctx context.Context, m *billingmodel.PayBillResponse) error
}

// HealthRecorder 网关调用结果统计
type HealthRecorder interface {
	Record(ctx context.Context, op string, err error)
}

// Alerter 网关异常报警
type Alerter interface {
	GatewayAlert(level, title, url string, payload any, extra map[string]string)
}

// 网关操作名，用于日志、告警与健康统计
const (
	OpFetchBillers = "fetch billers"
	OpFetchBill    = "fetch bill"
	OpPayBill      = "pay bill"
	OpCheckStatus  = "check bill status"
)

// GatewayOps 全部网关操作
var GatewayOps = []string{OpFetchBillers, OpFetchBill, OpPayBill, OpCheckStatus}

type PayBillParams struct {
	RefID        string
	RefnoAck     string
	PaymentRefID string
	Amount       decimal.Decimal
	BillerInfo   map[string]any
}

type CheckBillStatusParams struct {
	RefID    string
	BillerID string
}

type GatewayDeps struct {
	Config    config.GatewayCfg
	Project   string
	Tokens    TokenProvider
	Codec     Codec
	Http      HttpSender
	Cache     cache.Store
	Audit     AuditStore
	Publisher event.Publisher
	Alerter   Alerter
	Health    HealthRecorder
	Log       *logrus.Logger
}

// GatewayService 账单网关四个操作
type GatewayService struct {
	cfg        config.GatewayCfg
	billersKey string
	tokens     TokenProvider
	codec      Codec
	http       HttpSender
	cache      cache.Store
	audit      AuditStore
	publisher  event.Publisher
	alerter    Alerter
	health     HealthRecorder
	log        *logrus.Logger
	loc        *time.Location

	now      func() time.Time
	newTrxID func() string
	newRefID func() string
	newRowID func() uint64
}

func NewGatewayService(d GatewayDeps) *GatewayService {
	if d.Publisher == nil {
		d.Publisher = event.NopPublisher{}
	}
	return &GatewayService{
		cfg:        d.Config,
		billersKey: rediskey.BillersInfoKey(d.Project),
		tokens:     d.Tokens,
		codec:      d.Codec,
		http:       d.Http,
		cache:      d.Cache,
		audit:      d.Audit,
		publisher:  d.Publisher,
		alerter:    d.Alerter,
		health:     d.Health,
		log:        d.Log,
		loc:        timeutil.LoadLocation(d.Config.TimeZone),
		now:        time.Now,
		newTrxID:   idgen.NewTransactionID,
		newRefID:   idgen.NewReferenceID,
		newRowID:   idgen.New,
	}
}

// FetchBillersInformation 拉取账单方目录并按同步频率缓存
func (s *GatewayService) FetchBillersInformation(ctx context.Context) (_ map[string]any, err error) {
	defer func() { s.record(ctx, OpFetchBillers, err) }()
	token, err := s.ensureToken(ctx)
	if err != nil {
		return nil, err
	}
	env := &dto.GatewayEnvelope{
		Hdrs: s.header(dto.MsgFetchBillers, ""),
		Trx:  s.trx(""),
	}

	reply, err := s.send(ctx, OpFetchBillers, s.cfg.BillersPath, token, env)
	if err != nil {
		return nil, err
	}
	if err := s.checkReply(OpFetchBillers, s.cfg.BillersPath, env, reply, nil); err != nil {
		return nil, err
	}
	raw := reply.raw

	ttl := time.Duration(s.cfg.BillersSyncFrequency) * time.Second
	if err := s.cache.Set(ctx, s.billersKey, utils.MapToJSON(raw), ttl); err != nil {
		s.log.WithError(err).Warn("[Gateway-Billers] cache billers info failed")
	}
	s.log.WithField("trx_id", env.Trx.TrxID).Info("[Gateway-Billers] billers info synced")
	return raw, nil
}

// FetchBillersInformationFromCache 优先读缓存，未命中再请求网关
func (s *GatewayService) FetchBillersInformationFromCache(ctx context.Context) (map[string]any, error) {
	cached, ok, err := s.cache.Get(ctx, s.billersKey)
	if err != nil {
		s.log.WithError(err).Warn("[Gateway-Billers] read cache failed, falling back to gateway")
	}
	if ok && cached != "" {
		var m map[string]any
		dec := json.NewDecoder(bytes.NewReader([]byte(cached)))
		dec.UseNumber()
		if err := dec.Decode(&m); err == nil && len(m) > 0 {
			return m, nil
		}
		s.log.Warn("[Gateway-Billers] cached billers info unreadable, refetching")
	}
	return s.FetchBillersInformation(ctx)
}

// FetchCustomerBillInformation 查询用户账单；发送前落请求审计，解密后落响应审计
func (s *GatewayService) FetchCustomerBillInformation(ctx context.Context, fields map[string]any) (_ *dto.FetchBillResult, err error) {
	const op = OpFetchBill
	defer func() { s.record(ctx, op, err) }()
	token, err := s.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	refID := s.newRefID()
	bllInf := map[string]any{"mode": s.cfg.BillFetchMode}
	for k, v := range fields {
		bllInf[k] = v
	}
	env := &dto.GatewayEnvelope{
		Hdrs:   s.header(dto.MsgFetchBill, refID),
		Trx:    s.trx(""),
		BllInf: bllInf,
		UsrInf: &dto.UserInfo{SyndicateID: s.cfg.SyndicateID},
	}
	entry := s.log.WithFields(logrus.Fields{"op": op, "ref_id": refID, "trx_id": env.Trx.TrxID})

	req := &billingmodel.FetchBillRequest{
		ID:        s.newRowID(),
		Payload:   utils.MapToJSON(env),
		RefID:     refID,
		BllrID:    stringValue(bllInf["bllr_id"]),
		CreatedAt: s.now(),
	}
	if err := s.audit.CreateFetchBillRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("%s: save request audit: %w", op, err)
	}

	// 非 2xx 但能解密的响应同样落审计，再判定成败
	reply, err := s.send(ctx, op, s.cfg.FetchBillPath, token, env)
	if err != nil {
		return nil, err
	}
	raw := reply.raw
	resp, perr := dto.ParseGatewayResponse(raw)
	if perr != nil {
		resp = &dto.GatewayResponse{Raw: raw}
	}

	record := &billingmodel.FetchBillResponse{
		ID:                 s.newRowID(),
		FetchBillRequestID: req.ID,
		Response:           utils.MapToJSON(raw),
		RefID:              string(resp.Hdrs.RefID),
		TrxID:              string(resp.Trx.TrxID),
		BllrInf:            utils.MapToJSON(resp.BllrInf),
		RefnoAck:           resp.RefnoAck(),
		CreatedAt:          s.now(),
	}
	if err := s.audit.CreateFetchBillResponse(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: save response audit: %w", op, err)
	}

	if err := s.checkReply(op, s.cfg.FetchBillPath, env, reply, perr); err != nil {
		return nil, err
	}

	result := &dto.FetchBillResult{RefID: refID, RefnoAck: record.RefnoAck}
	if resp.IsBillPaid() {
		result.AlreadyPaid = true
		result.Message = dto.AlreadyPaidMessage
	} else {
		result.Payload = raw
	}

	s.emit(dto.BillEvent{
		Type:      dto.EventBillFetched,
		RefID:     refID,
		TrxID:     env.Trx.TrxID,
		BllrID:    req.BllrID,
		RefnoAck:  record.RefnoAck,
		AlreadyPd: result.AlreadyPaid,
	})
	entry.WithField("already_paid", result.AlreadyPaid).Info("[Gateway-FetchBill] bill fetched")
	return result, nil
}

// PayBill 缴费，ref_id 与 refno_ack 来自之前的账单查询
func (s *GatewayService) PayBill(ctx context.Context, p PayBillParams) (_ map[string]any, err error) {
	const op = OpPayBill
	defer func() { s.record(ctx, op, err) }()
	token, err := s.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	bllrInf := utils.CloneMap(p.BillerInfo)
	bllrInf["mode"] = dto.PayBillMode
	ts := s.timestamp()
	env := &dto.GatewayEnvelope{
		Hdrs: s.header(dto.MsgPayBill, p.RefID),
		Trx:  s.trx(p.RefnoAck),
		PydInf: &dto.PaymentInfo{
			PydTrxnRefID: p.PaymentRefID,
			PydTms:       ts,
			PydAmnt:      p.Amount,
		},
		BllrInf: bllrInf,
		UsrInf:  &dto.UserInfo{SyndicateID: s.cfg.SyndicateID},
	}
	entry := s.log.WithFields(logrus.Fields{"op": op, "ref_id": p.RefID, "trx_id": env.Trx.TrxID})

	req := &billingmodel.PayBillRequest{
		ID:           s.newRowID(),
		Payload:      utils.MapToJSON(env),
		RefID:        p.RefID,
		RefnoAck:     p.RefnoAck,
		PydTrxnRefID: p.PaymentRefID,
		PydAmnt:      p.Amount,
		CreatedAt:    s.now(),
	}
	if err := s.audit.CreatePayBillRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("%s: save request audit: %w", op, err)
	}

	reply, err := s.send(ctx, op, s.cfg.PayBillPath, token, env)
	if err != nil {
		return nil, err
	}
	raw := reply.raw
	resp, perr := dto.ParseGatewayResponse(raw)
	if perr != nil {
		resp = &dto.GatewayResponse{Raw: raw}
	}
	record := &billingmodel.PayBillResponse{
		ID:               s.newRowID(),
		PayBillRequestID: req.ID,
		Response:         utils.MapToJSON(raw),
		RefID:            string(resp.Hdrs.RefID),
		TrxID:            string(resp.Trx.TrxID),
		Status:           string(resp.RespStatus.Status),
		CreatedAt:        s.now(),
	}
	if err := s.audit.CreatePayBillResponse(ctx, record); err != nil {
		return nil, fmt.Errorf("%s: save response audit: %w", op, err)
	}

	if err := s.checkReply(op, s.cfg.PayBillPath, env, reply, perr); err != nil {
		return nil, err
	}

	s.emit(dto.BillEvent{
		Type:     dto.EventBillPaid,
		RefID:    p.RefID,
		TrxID:    env.Trx.TrxID,
		BllrID:   stringValue(p.BillerInfo["bllr_id"]),
		RefnoAck: p.RefnoAck,
		Amount:   p.Amount,
	})
	entry.WithField("amount", p.Amount.String()).Info("[Gateway-PayBill] bill paid")
	return raw, nil
}

// CheckBillStatus 查询缴费状态
func (s *GatewayService) CheckBillStatus(ctx context.Context, p CheckBillStatusParams) (_ map[string]any, err error) {
	const op = OpCheckStatus
	defer func() { s.record(ctx, op, err) }()
	token, err := s.ensureToken(ctx)
	if err != nil {
		return nil, err
	}
	env := &dto.GatewayEnvelope{
		Hdrs: s.header(dto.MsgCheckStatus, p.RefID),
		Trx:  s.trx(""),
		BllInf: map[string]any{
			"mode":    dto.PayBillMode,
			"bllr_id": p.BillerID,
		},
		UsrInf: &dto.UserInfo{SyndicateID: s.cfg.SyndicateID},
	}

	reply, err := s.send(ctx, op, s.cfg.CheckStatusPath, token, env)
	if err != nil {
		return nil, err
	}
	if err := s.checkReply(op, s.cfg.CheckStatusPath, env, reply, nil); err != nil {
		return nil, err
	}
	raw := reply.raw
	s.log.WithFields(logrus.Fields{"op": op, "ref_id": p.RefID, "trx_id": env.Trx.TrxID}).
		Info("[Gateway-CheckStatus] status checked")
	return raw, nil
}

func (s *GatewayService) ensureToken(ctx context.Context) (string, error) {
	token, err := s.tokens.GetOrRefreshToken(ctx)
	if err != nil {
		return "", s.fail("token", s.cfg.TokenPath, nil, err)
	}
	return token, nil
}

// gatewayResult 解密后的网关响应及 HTTP 状态
type gatewayResult struct {
	status int
	raw    map[string]any
}

func (r *gatewayResult) ok() bool { return r.status >= 200 && r.status < 300 }

// send 加密、发送、解密；401/403 时丢弃缓存令牌。
// 非 2xx 且报文可解密时照常返回结果，由调用方落审计后判定
func (s *GatewayService) send(ctx context.Context, op, path, token string, env *dto.GatewayEnvelope) (*gatewayResult, error) {
	url := s.cfg.BaseURL + path
	body, err := s.codec.Encrypt(env)
	if err != nil {
		return nil, s.fail(op, path, env, err)
	}

	resp, err := s.http.Send(ctx, http.MethodPost, url, body, map[string]string{
		"Content-Type":  "text/plain",
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		return nil, s.fail(op, path, env, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if err := s.tokens.InvalidateToken(ctx); err != nil {
			s.log.WithError(err).Warn("[Gateway] invalidate token failed")
		}
	}

	raw, err := s.codec.Decrypt(resp.Body)
	if err != nil {
		if !resp.IsSuccess() {
			return nil, s.fail(op, path, env, &constant.GatewayBusinessError{
				Op:         op,
				StatusCode: resp.StatusCode,
				Reason:     http.StatusText(resp.StatusCode),
				Body:       string(resp.Body),
			})
		}
		return nil, s.fail(op, path, env, err)
	}
	return &gatewayResult{status: resp.StatusCode, raw: raw}, nil
}

// checkReply 非 2xx，或 resp_status.sts 存在且不是 SUCCESS，视为业务失败
func (s *GatewayService) checkReply(op, path string, env *dto.GatewayEnvelope, reply *gatewayResult, parseErr error) error {
	resp, err := dto.ParseGatewayResponse(reply.raw)
	if parseErr != nil {
		err = parseErr
	}
	if err != nil {
		if !reply.ok() {
			return s.fail(op, path, env, &constant.GatewayBusinessError{
				Op:         op,
				StatusCode: reply.status,
				Reason:     http.StatusText(reply.status),
				Body:       reply.raw,
			})
		}
		return s.fail(op, path, env, &constant.CodecError{Op: "parse response", Err: err})
	}
	if reply.ok() && !resp.Failed() {
		return nil
	}
	reason := resp.RespStatus.Message.Text
	if reason == "" && !reply.ok() {
		reason = http.StatusText(reply.status)
	}
	return s.fail(op, path, env, &constant.GatewayBusinessError{
		Op:         op,
		StatusCode: reply.status,
		Status:     string(resp.RespStatus.Status),
		Reason:     reason,
		Body:       reply.raw,
	})
}

func (s *GatewayService) fail(op, path string, env *dto.GatewayEnvelope, err error) error {
	level, lvl := "error", logrus.ErrorLevel
	var be *constant.GatewayBusinessError
	if errors.As(err, &be) {
		level, lvl = "warn", logrus.WarnLevel
	}
	entry := s.log.WithError(err).WithField("op", op)
	if env != nil {
		entry = entry.WithFields(logrus.Fields{"ref_id": env.Hdrs.RefID, "trx_id": env.Trx.TrxID})
	}
	entry.Log(lvl, "[Gateway] call failed")

	if s.alerter != nil {
		extra := map[string]string{"error": err.Error(), "code": fmt.Sprintf("%d", constant.CodeOf(err))}
		var payload any
		if env != nil {
			// 报文含账户信息，告警只带头部与交易段
			payload = map[string]any{"hdrs": env.Hdrs, "trx": env.Trx}
		}
		s.alerter.GatewayAlert(level, "bill gateway "+op+" failed", s.cfg.BaseURL+path, payload, extra)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *GatewayService) record(ctx context.Context, op string, err error) {
	if s.health != nil {
		s.health.Record(ctx, op, err)
	}
}

func (s *GatewayService) emit(evt dto.BillEvent) {
	evt.OccurredAt = s.now().Unix()
	if err := s.publisher.Publish(evt.Type, evt); err != nil {
		s.log.WithError(err).WithField("ref_id", evt.RefID).Warn("[Gateway] publish event failed")
	}
}

func (s *GatewayService) header(name, refID string) dto.EnvelopeHeader {
	return dto.EnvelopeHeader{
		Name:      name,
		Version:   s.cfg.Version,
		Timestamp: s.timestamp(),
		RefID:     refID,
		NodeID:    s.cfg.NodeID,
	}
}

func (s *GatewayService) trx(refnoAck string) dto.EnvelopeTrx {
	return dto.EnvelopeTrx{
		TrxID:    s.newTrxID(),
		TrxTms:   s.timestamp(),
		RefnoAck: refnoAck,
	}
}

func (s *GatewayService) timestamp() string {
	return timeutil.FormatGateway(s.now(), s.loc)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
