package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottoken/sendMessage") {
			t.Fatalf("路径应为 /bottoken/sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	note := Notification{Subject: "subject", Body: "🐳 Found 0 large transfers."}

	if err := notifier.Notify(context.Background(), note); err != nil {
		t.Fatalf("Telegram Notify 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if received["text"] != note.Body {
		t.Fatalf("text 应为报告正文, 实际 %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	err := notifier.Notify(context.Background(), Notification{Body: "x"})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("ok=false 应返回 ErrDeliveryFailed, 实际 %v", err)
	}
}

func TestTelegramNotifierHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), Notification{Body: "x"}); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("401 应返回 ErrDeliveryFailed, 实际 %v", err)
	}
}

func TestTelegramNotifierUnreachableHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	notifier := NewTelegramNotifier("secret-token", "chat", url, time.Second, testLogger())
	err := notifier.Notify(context.Background(), Notification{Body: "x"})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("连接失败应返回 ErrDeliveryFailed, 实际 %v", err)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("错误信息不应包含 bot token: %v", err)
	}
}

func TestTruncateRunes(t *testing.T) {
	long := strings.Repeat("🐳", telegramMaxRunes+10)
	got := truncateRunes(long, telegramMaxRunes)
	if utf8.RuneCountInString(got) != telegramMaxRunes {
		t.Fatalf("截断后长度应为 %d, 实际 %d", telegramMaxRunes, utf8.RuneCountInString(got))
	}
	if truncateRunes("short", telegramMaxRunes) != "short" {
		t.Fatal("短文本不应截断")
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
