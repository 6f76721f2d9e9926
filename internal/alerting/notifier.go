package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"futureswatch/internal/engine"
)

// Notification 封装告警上下文。
type Notification struct {
	At        time.Time
	Group     string
	Kind      string
	Subject   string
	Side      string
	Entry     decimal.NullDecimal
	Stop      decimal.NullDecimal
	Target    decimal.NullDecimal
	Level     decimal.NullDecimal
	Spread    decimal.NullDecimal
	ZScore    decimal.NullDecimal
	Rationale string
	Channels  []string
}

// FromAlert converts an engine alert into a notification.
func FromAlert(alert engine.Alert, channels []string) Notification {
	note := Notification{
		At:       alert.At,
		Group:    alert.Key.Group,
		Kind:     string(alert.Kind),
		Subject:  alert.Key.Subject,
		Side:     alert.Key.Side,
		Channels: channels,
	}
	if b := alert.Breakout; b != nil {
		note.Entry = nullDecimal(b.Entry, true)
		note.Stop = nullDecimal(b.Stop, true)
		note.Level = nullDecimal(b.Level, true)
		target, ok := b.Target.Get()
		note.Target = nullDecimal(target, ok)
		note.Rationale = b.Rationale
	}
	if s := alert.Spread; s != nil {
		v, ok := s.Value.Get()
		note.Spread = nullDecimal(v, ok)
		z, ok := s.Z.Get()
		note.ZScore = nullDecimal(z, ok)
		note.Rationale = fmt.Sprintf("%d-sample window", s.Samples)
	}
	return note
}

func nullDecimal(v float64, ok bool) decimal.NullDecimal {
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    RenderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Time("at", note.At).
		Str("kind", note.Kind).
		Str("subject", note.Subject).
		Str("side", note.Side).
		Msg("告警已发送 (Telegram)")
	return nil
}

// RenderMessage formats a notification as plain text.
func RenderMessage(note Notification) string {
	builder := strings.Builder{}
	switch note.Kind {
	case string(engine.KindBreakout):
		builder.WriteString(fmt.Sprintf("[突破确认 %s%s %s]\n", note.Subject, note.Group, note.Side))
		builder.WriteString(fmt.Sprintf("Entry: %s\n", fixed(note.Entry)))
		builder.WriteString(fmt.Sprintf("Stop: %s\n", fixed(note.Stop)))
		builder.WriteString(fmt.Sprintf("Target: %s\n", fixed(note.Target)))
		builder.WriteString(fmt.Sprintf("Level: %s\n", fixed(note.Level)))
	default:
		builder.WriteString(fmt.Sprintf("[价差异常 %s %s %s]\n", note.Group, note.Subject, note.Side))
		builder.WriteString(fmt.Sprintf("Spread: %s\n", fixed(note.Spread)))
		builder.WriteString(fmt.Sprintf("Z-score: %s\n", fixed(note.ZScore)))
	}
	builder.WriteString(fmt.Sprintf("Time: %s\n", note.At.Format(time.RFC3339)))
	if len(note.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(note.Channels, ",")))
	}
	if note.Rationale != "" {
		builder.WriteString(note.Rationale)
	}
	return builder.String()
}

func fixed(d decimal.NullDecimal) string {
	if !d.Valid {
		return "待确认"
	}
	return d.Decimal.StringFixed(2)
}

var _ Notifier = (*TelegramNotifier)(nil)
