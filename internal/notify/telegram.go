package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"bill-gateway-api/internal/config"
	"bill-gateway-api/internal/utils"
)

const defaultTelegramAPI = "https://api.telegram.org"

type TelegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
	Parse  string `json:"parse_mode"`
}

type sender interface {
	Send(ctx context.Context, method, url string, body []byte, headers map[string]string) (*utils.RawResponse, error)
}

// TelegramNotifier 网关异常推送到 Telegram 群
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	http     sender
	loc      *time.Location
	log      *logrus.Logger
}

func NewTelegramNotifier(cfg config.NotifyCfg, loc *time.Location, log *logrus.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.TelegramBotToken,
		chatID:   cfg.TelegramChatID,
		apiBase:  defaultTelegramAPI,
		http: utils.NewHttpClient(utils.HttpClientOptions{
			Timeout: 5 * time.Second,
			Retry:   utils.RetryPolicy{MaxAttempts: 2, BackoffFactor: time.Second, StatusForcelist: []int{502, 503, 504}},
		}, log),
		loc: loc,
		log: log,
	}
}

// Enabled 未配置 bot token 或 chat id 时不推送
func (n *TelegramNotifier) Enabled() bool {
	return n != nil && n.botToken != "" && n.chatID != ""
}

func (n *TelegramNotifier) SendTelegramMessage(ctx context.Context, content string) error {
	if !n.Enabled() {
		return fmt.Errorf("telegram notifier not configured")
	}
	body, err := json.Marshal(TelegramMessage{ChatID: n.chatID, Text: content, Parse: "MarkdownV2"})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	resp, err := n.http.Send(ctx, http.MethodPost, url, body, map[string]string{"Content-Type": "application/json"})
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("telegram responded %d: %s", resp.StatusCode, string(resp.Body))
	}
	return nil
}

// 异步发送，失败只记日志
func (n *TelegramNotifier) sendAsync(content string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := n.SendTelegramMessage(ctx, content); err != nil {
			n.log.WithError(err).Warn("[Notify] telegram message send failed")
		}
	}()
}
