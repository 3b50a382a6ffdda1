package notify

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"bill-gateway-api/internal/utils"
	"bill-gateway-api/internal/utils/timeutil"
)

var levelIcon = map[string]string{
	"error": "🚨",
	"warn":  "⚠️",
	"info":  "ℹ️",
}

// GatewayAlert 账单网关异常报警（提取报文头与交易段 + 单行 JSON）
func (n *TelegramNotifier) GatewayAlert(level, title, url string, payload any, extra map[string]string) {
	if !n.Enabled() {
		return
	}
	n.sendAsync(n.buildGatewayAlert(level, title, url, payload, extra))
}

func (n *TelegramNotifier) buildGatewayAlert(level, title, url string, payload any, extra map[string]string) string {
	payloadJSON, _ := json.Marshal(payload)
	var payloadMap map[string]any
	_ = json.Unmarshal(payloadJSON, &payloadMap)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *%s*\n", levelIcon[level], escapeMarkdown(title)))
	sb.WriteString(fmt.Sprintf("*服务接口:* %s\n", escapeMarkdown(url)))
	sb.WriteString(fmt.Sprintf("*告警时间:* %s\n", escapeMarkdown(timeutil.FormatGateway(timeutil.NowUTC(), n.loc))))

	writeIf := func(label string, path ...string) {
		if v := utils.NestedString(payloadMap, path...); v != "" {
			sb.WriteString(fmt.Sprintf("%s: %s\n", escapeMarkdown(label), escapeMarkdown(v)))
		}
	}
	writeIf("报文类型", "hdrs", "nm")
	writeIf("节点", "hdrs", "nd_id")
	writeIf("参考号", "hdrs", "ref_id")
	writeIf("交易号", "trx", "trx_id")
	writeIf("确认号", "trx", "refno_ack")

	// 错误码、错误信息等
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := extra[k]; v != "" {
			sb.WriteString(fmt.Sprintf("%s: %s\n", escapeMarkdown(k), escapeMarkdown(v)))
		}
	}

	s := strings.TrimSpace(string(payloadJSON))
	if s != "" && s != "{}" && s != "null" {
		sb.WriteString("\n*请求报文:*\n")
		sb.WriteString(fmt.Sprintf("`%s`\n", escapeMarkdown(s)))
	}
	return sb.String()
}

// escapeMarkdown 转义 Telegram Markdown V2 特殊字符
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(s)
}
