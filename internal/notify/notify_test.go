package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill-gateway-api/internal/config"
	"bill-gateway-api/internal/logger"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b\*c\.d\-e\!`, escapeMarkdown("a_b*c.d-e!"))
}

func TestBuildGatewayAlert(t *testing.T) {
	n := NewTelegramNotifier(config.NotifyCfg{TelegramBotToken: "t", TelegramChatID: "c"}, time.UTC, logger.Discard())
	payload := map[string]any{
		"hdrs": map[string]any{"nm": "FETCH_BLL_REQ", "ref_id": "REF_1"},
		"trx":  map[string]any{"trx_id": "TRX1"},
	}
	text := n.buildGatewayAlert("error", "bill gateway fetch bill failed", "https://gw.example/api", payload,
		map[string]string{"error": "boom", "code": "3005"})

	assert.Contains(t, text, "🚨 *bill gateway fetch bill failed*")
	assert.Contains(t, text, `https://gw\.example/api`)
	assert.Contains(t, text, `报文类型: FETCH\_BLL\_REQ`)
	assert.Contains(t, text, `参考号: REF\_1`)
	assert.Contains(t, text, "交易号: TRX1")
	assert.Less(t, strings.Index(text, "code: 3005"), strings.Index(text, "error: boom"))
	assert.Contains(t, text, "*请求报文:*")
}

func TestBuildGatewayAlert_NoPayload(t *testing.T) {
	n := NewTelegramNotifier(config.NotifyCfg{}, time.UTC, logger.Discard())
	text := n.buildGatewayAlert("warn", "token failed", "u", nil, nil)
	assert.NotContains(t, text, "请求报文")
}

func TestSendTelegramMessage(t *testing.T) {
	var got TelegramMessage
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := NewTelegramNotifier(config.NotifyCfg{TelegramBotToken: "bot123", TelegramChatID: "-100"}, time.UTC, logger.Discard())
	n.apiBase = srv.URL

	require.NoError(t, n.SendTelegramMessage(context.Background(), "hello"))
	assert.Equal(t, "/botbot123/sendMessage", path)
	assert.Equal(t, "-100", got.ChatID)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, "MarkdownV2", got.Parse)
}

func TestSendTelegramMessage_NotConfigured(t *testing.T) {
	n := NewTelegramNotifier(config.NotifyCfg{}, time.UTC, logger.Discard())
	assert.False(t, n.Enabled())
	assert.Error(t, n.SendTelegramMessage(context.Background(), "x"))

	var nilNotifier *TelegramNotifier
	assert.False(t, nilNotifier.Enabled())
}
