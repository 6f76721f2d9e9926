package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"futureswatch/internal/debounce"
	"futureswatch/internal/engine"
	"futureswatch/internal/market"
	"futureswatch/internal/signal"
)

func breakoutAlert() engine.Alert {
	res := signal.BreakoutResult{
		Signal:    true,
		Direction: market.Long,
		Entry:     107,
		Stop:      100.5,
		Target:    market.Some(120),
		Level:     101,
		Rationale: "3 consecutive samples above 102.00",
	}
	return engine.Alert{
		Kind:     engine.KindBreakout,
		Mode:     engine.ModeProminent,
		Key:      debounce.Key{Group: "2605", Subject: "Y", Side: "LONG"},
		At:       time.Date(2026, 3, 3, 9, 30, 0, 0, time.UTC),
		Breakout: &res,
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), FromAlert(breakoutAlert(), []string{"telegram"})); err != nil {
		t.Fatalf("Telegram Notify 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if !strings.Contains(received["text"], "Entry: 107.00") {
		t.Fatalf("text 应包含入场价: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), FromAlert(breakoutAlert(), nil)); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestRenderMissingTarget(t *testing.T) {
	alert := breakoutAlert()
	alert.Breakout.Target = market.Missing()
	text := RenderMessage(FromAlert(alert, nil))
	if !strings.Contains(text, "Target: 待确认") {
		t.Fatalf("missing target should render as pending: %q", text)
	}
}

func TestRenderSpread(t *testing.T) {
	reading := engine.SpreadReading{
		Def:      market.SpreadDef{Name: "Y-P", LegA: "Y", LegB: "P"},
		Value:    market.Some(412.5),
		Z:        market.Some(2.71828),
		Status:   engine.StatusOK,
		Samples:  600,
		Polarity: signal.PolarityHigh,
	}
	alert := engine.Alert{
		Kind:   engine.KindSpread,
		Key:    debounce.Key{Group: "2605", Subject: "Y-P", Side: "high"},
		At:     time.Now(),
		Spread: &reading,
	}
	text := RenderMessage(FromAlert(alert, nil))
	if !strings.Contains(text, "Spread: 412.50") || !strings.Contains(text, "Z-score: 2.72") {
		t.Fatalf("unexpected spread message: %q", text)
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
