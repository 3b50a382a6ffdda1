package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bill-gateway-api/internal/cache"
	"bill-gateway-api/internal/config"
	"bill-gateway-api/internal/logger"
	billingmodel "bill-gateway-api/internal/model/billing"
	"bill-gateway-api/internal/utils"
)

const (
	testKey = "0123456789abcdef0123456789abcdef"
	testIV  = "abcdef9876543210"
)

// gatewayReply 假网关的响应：Raw 非空时原样返回，否则加密 Body
type gatewayReply struct {
	Status int
	Body   map[string]any
	Raw    string
}

// fakeGateway 模拟账单网关：令牌接口明文 JSON，其余接口加密
type fakeGateway struct {
	t     *testing.T
	srv   *httptest.Server
	codec *utils.AESCodec

	mu        sync.Mutex
	hits      map[string]int
	envelopes map[string]map[string]any
	headers   map[string]http.Header
	handlers  map[string]func(env map[string]any) gatewayReply

	tokenExp   string
	tokenValue string
	tokenBlock chan struct{}
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	codec, err := utils.NewAESCodec(testKey, testIV)
	require.NoError(t, err)
	g := &fakeGateway{
		t:          t,
		codec:      codec,
		hits:       make(map[string]int),
		envelopes:  make(map[string]map[string]any),
		headers:    make(map[string]http.Header),
		handlers:   make(map[string]func(map[string]any) gatewayReply),
		tokenExp:   "3600s",
		tokenValue: "tok-1",
	}
	g.srv = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	g.mu.Lock()
	g.hits[r.URL.Path]++
	g.headers[r.URL.Path] = r.Header.Clone()
	block := g.tokenBlock
	g.mu.Unlock()

	if r.URL.Path == testCfg().TokenPath {
		if block != nil {
			<-block
		}
		var req map[string]string
		_ = json.Unmarshal(body, &req)
		if req["user_id"] != "user" || req["pass_key"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		g.mu.Lock()
		resp := map[string]string{"security_token": g.tokenValue, "token_exp_time": g.tokenExp}
		g.mu.Unlock()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	env, err := g.codec.Decrypt(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	g.mu.Lock()
	g.envelopes[r.URL.Path] = env
	h := g.handlers[r.URL.Path]
	g.mu.Unlock()

	reply := gatewayReply{Status: http.StatusOK, Body: map[string]any{}}
	if h != nil {
		reply = h(env)
	}
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	w.WriteHeader(reply.Status)
	if reply.Raw != "" {
		_, _ = io.WriteString(w, reply.Raw)
		return
	}
	enc, err := g.codec.Encrypt(reply.Body)
	require.NoError(g.t, err)
	_, _ = w.Write(enc)
}

func (g *fakeGateway) handle(path string, h func(env map[string]any) gatewayReply) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[path] = h
}

func (g *fakeGateway) hitCount(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hits[path]
}

func (g *fakeGateway) envelope(path string) map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.envelopes[path]
}

func (g *fakeGateway) header(path string) http.Header {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.headers[path]
}

func testCfg() config.GatewayCfg {
	return config.GatewayCfg{
		TokenPath:            "/token",
		BillersPath:          "/billers",
		FetchBillPath:        "/fetch-bill",
		PayBillPath:          "/pay-bill",
		CheckStatusPath:      "/check-status",
		UserID:               "user",
		PassKey:              "secret",
		NodeID:               "NS5981",
		SyndicateID:          "s572",
		BillFetchMode:        "SAPI",
		Version:              "v1.3.0",
		TimeZone:             "Asia/Dhaka",
		BillersSyncFrequency: 600,
		EncryptKey:           testKey,
		EncryptIV:            testIV,
	}
}

func testHttpClient() *utils.HttpClient {
	return utils.NewHttpClient(utils.HttpClientOptions{
		Timeout: 2 * time.Second,
		Retry:   utils.RetryPolicy{MaxAttempts: 2, BackoffFactor: time.Millisecond, StatusForcelist: []int{502, 503, 504}},
	}, logger.Discard())
}

// memAudit 内存审计存储
type memAudit struct {
	mu             sync.Mutex
	fetchRequests  []billingmodel.FetchBillRequest
	fetchResponses []billingmodel.FetchBillResponse
	payRequests    []billingmodel.PayBillRequest
	payResponses   []billingmodel.PayBillResponse
	failWith       error
}

func (m *memAudit) CreateFetchBillRequest(_ context.Context, r *billingmodel.FetchBillRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.fetchRequests = append(m.fetchRequests, *r)
	return nil
}

func (m *memAudit) CreateFetchBillResponse(_ context.Context, r *billingmodel.FetchBillResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchResponses = append(m.fetchResponses, *r)
	return nil
}

func (m *memAudit) CreatePayBillRequest(_ context.Context, r *billingmodel.PayBillRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payRequests = append(m.payRequests, *r)
	return nil
}

func (m *memAudit) CreatePayBillResponse(_ context.Context, r *billingmodel.PayBillResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payResponses = append(m.payResponses, *r)
	return nil
}

type recordedEvent struct {
	topic string
	msg   any
}

type memPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *memPublisher) Publish(topic string, msg any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, msg: msg})
	return nil
}

type memAlerter struct {
	mu     sync.Mutex
	titles []string
}

func (a *memAlerter) GatewayAlert(level, title, url string, payload any, extra map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.titles = append(a.titles, title)
}

type healthCall struct {
	op  string
	err error
}

type memHealth struct {
	mu    sync.Mutex
	calls []healthCall
}

func (m *memHealth) Record(_ context.Context, op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, healthCall{op: op, err: err})
}

type harness struct {
	gw        *fakeGateway
	store     *cache.MemoryStore
	tokens    *TokenService
	svc       *GatewayService
	audit     *memAudit
	publisher *memPublisher
	alerter   *memAlerter
	health    *memHealth
	now       time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		gw:        newFakeGateway(t),
		audit:     &memAudit{},
		publisher: &memPublisher{},
		alerter:   &memAlerter{},
		health:    &memHealth{},
		now:       time.Date(2023, 11, 29, 10, 38, 0, 0, time.UTC),
	}
	clock := func() time.Time { return h.now }
	h.store = cache.NewMemoryStore().WithClock(clock)

	cfg := testCfg()
	cfg.BaseURL = h.gw.srv.URL
	client := testHttpClient()
	log := logger.Discard()

	h.tokens = NewTokenService(cfg, "test", client, h.store, log)
	codec, err := utils.NewAESCodec(cfg.EncryptKey, cfg.EncryptIV)
	require.NoError(t, err)
	h.svc = NewGatewayService(GatewayDeps{
		Config:    cfg,
		Project:   "test",
		Tokens:    h.tokens,
		Codec:     codec,
		Http:      client,
		Cache:     h.store,
		Audit:     h.audit,
		Publisher: h.publisher,
		Alerter:   h.alerter,
		Health:    h.health,
		Log:       log,
	})
	h.svc.now = clock

	var seq int
	h.svc.newTrxID = func() string {
		seq++
		return "TRX" + string(rune('A'+seq))
	}
	h.svc.newRefID = func() string { return "REF123" }
	var row uint64
	h.svc.newRowID = func() uint64 {
		row++
		return row
	}
	return h
}
