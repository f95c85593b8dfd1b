package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	kit "raton/internal/transport"
	logx "raton/pkg/logx"
)

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		in        string
		limit     int
		parseMode string
		want      []string
	}{
		{name: "short", in: "hello", limit: 10, want: []string{"hello"}},
		{name: "newline boundary", in: "aaaa\nbbbb\ncccc", limit: 10, want: []string{"aaaa\nbbbb", "cccc"}},
		{name: "hard cut", in: "abcdefghij", limit: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "runes not bytes", in: "✈✈✈✈✈", limit: 2, want: []string{"✈✈", "✈✈", "✈"}},
		{name: "html tag kept whole", in: "abcdef<b>x</b>", limit: 8, parseMode: "HTML", want: []string{"abcdef", "<b>x</b>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := splitTelegramText(tt.in, tt.limit, tt.parseMode)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) || len(got) != len(tt.want) {
				t.Fatalf("splitTelegramText = %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeBotAPI struct {
	mu    sync.Mutex
	paths []string
	texts []string
	modes []string
	reply string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var p map[string]any
	_ = json.Unmarshal(body, &p)
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	text, _ := p["text"].(string)
	mode, _ := p["parse_mode"].(string)
	f.texts = append(f.texts, text)
	f.modes = append(f.modes, mode)
	n := len(f.paths)
	f.mu.Unlock()
	if f.reply != "" {
		fmt.Fprint(w, f.reply)
		return
	}
	fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"date":0,"chat":{"id":42,"type":"private"}}}`, 100+n)
}

func TestSendTextPostsToBotAPI(t *testing.T) {
	t.Parallel()
	f := &fakeBotAPI{}
	srv := httptest.NewServer(f)
	defer srv.Close()

	a, err := New(Config{Token: "123:abc", APIURL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "*hi*", &kit.SendOptions{ParseMode: kit.ParseMarkdownV2})
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if ref.MessageID != 101 || ref.ChatID != 42 {
		t.Fatalf("ref = %+v", ref)
	}
	if f.paths[0] != "/bot123:abc/sendMessage" {
		t.Fatalf("path = %q", f.paths[0])
	}
	if f.texts[0] != "*hi*" || f.modes[0] != "MarkdownV2" {
		t.Fatalf("text/mode = %q/%q", f.texts[0], f.modes[0])
	}
	if sent, failed := a.Stats(); sent != 1 || failed != 0 {
		t.Fatalf("Stats = %d/%d", sent, failed)
	}
}

func TestSendTextTestEnvironmentPath(t *testing.T) {
	t.Parallel()
	f := &fakeBotAPI{}
	srv := httptest.NewServer(f)
	defer srv.Close()

	a, err := New(Config{Token: "123:abc", APIURL: srv.URL, TestEnvironment: true}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "x", nil); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if f.paths[0] != "/bot123:abc/test/sendMessage" {
		t.Fatalf("path = %q", f.paths[0])
	}
}

func TestSendTextSplitsLongMessages(t *testing.T) {
	t.Parallel()
	f := &fakeBotAPI{}
	srv := httptest.NewServer(f)
	defer srv.Close()

	a, err := New(Config{Token: "t", APIURL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	long := strings.Repeat(strings.Repeat("x", 99)+"\n", 50)
	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, long, nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if len(f.texts) != 2 {
		t.Fatalf("parts = %d, want 2", len(f.texts))
	}
	if ref.MessageID != 101 {
		t.Fatalf("ref should point at the first part, got %d", ref.MessageID)
	}
}

func TestSendTextReturnsAPIError(t *testing.T) {
	t.Parallel()
	f := &fakeBotAPI{reply: `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`}
	srv := httptest.NewServer(f)
	defer srv.Close()

	a, err := New(Config{Token: "t", APIURL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 1}, "x", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, failed := a.Stats(); failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
}

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error")
	}
}
