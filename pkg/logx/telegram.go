package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	kit "raton/internal/transport"
)

const (
	forwardQueue  = 256
	maxMessageLen = 3500
	maxValueLen   = 600
	maxStackLen   = 900
	minRatePerSec = 1
)

// forwarder is a zerolog sink that relays entries to an operator chat.
// Writes never block: entries over the rate or past a full queue are
// dropped.
type forwarder struct {
	sender kit.Sender

	mu       sync.Mutex
	target   kit.ChatTarget
	minLevel zerolog.Level
	limiter  *rate.Limiter
	pending  chan forwardItem
	cancel   context.CancelFunc
	done     chan struct{}
}

type forwardItem struct {
	to   kit.ChatTarget
	text string
}

func newForwarder(sender kit.Sender) *forwarder {
	return &forwarder{
		sender:   sender,
		minLevel: zerolog.WarnLevel,
		limiter:  rate.NewLimiter(minRatePerSec, minRatePerSec),
	}
}

func (f *forwarder) setTarget(chatID int64, threadID int) {
	f.mu.Lock()
	f.target.ChatID = chatID
	if threadID != 0 {
		f.target.ThreadID = threadID
	}
	f.mu.Unlock()
}

func (f *forwarder) hasTarget() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target.ChatID != 0
}

func (f *forwarder) configure(cfg TelegramConfig) {
	rps := max(minRatePerSec, cfg.RatePerSec)
	f.mu.Lock()
	f.minLevel = parseLevel(cfg.MinLevel, zerolog.WarnLevel)
	f.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	if cfg.ThreadID != 0 {
		f.target.ThreadID = cfg.ThreadID
	}
	f.mu.Unlock()
}

// start launches the delivery goroutine unless it is already running.
func (f *forwarder) start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil || f.sender == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.pending = make(chan forwardItem, forwardQueue)
	f.done = make(chan struct{})
	go f.deliver(ctx, f.pending, f.done)
}

func (f *forwarder) stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done, f.pending = nil, nil, nil
	f.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (f *forwarder) deliver(ctx context.Context, in <-chan forwardItem, done chan<- struct{}) {
	defer close(done)
	opts := &kit.SendOptions{DisablePreview: true}
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-in:
			_, _ = f.sender.SendText(ctx, it.to, it.text, opts)
		}
	}
}

func (f *forwarder) Write(p []byte) (int, error) {
	return f.WriteLevel(zerolog.InfoLevel, p)
}

func (f *forwarder) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	f.mu.Lock()
	to, pending := f.target, f.pending
	ok := pending != nil && to.ChatID != 0 && level >= f.minLevel && f.limiter.Allow()
	f.mu.Unlock()
	if !ok {
		return len(p), nil
	}
	if text := formatTelegramJSON(p); text != "" {
		select {
		case pending <- forwardItem{to: to, text: text}:
		default:
		}
	}
	return len(p), nil
}

var skipKeys = map[string]bool{
	zerolog.TimestampFieldName: true,
	zerolog.LevelFieldName:     true,
	zerolog.MessageFieldName:   true,
	"msg":                      true,
}

// formatTelegramJSON renders one zerolog JSON line as "[LEVEL] message"
// followed by sorted "- key=value" lines. Non-JSON input is sent as is.
func formatTelegramJSON(p []byte) string {
	p = bytes.TrimSpace(p)
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		return truncate(string(p), maxMessageLen)
	}

	msg, _ := m[zerolog.MessageFieldName].(string)
	if msg == "" {
		msg, _ = m["msg"].(string)
	}

	var b strings.Builder
	if lvl, _ := m[zerolog.LevelFieldName].(string); lvl != "" {
		fmt.Fprintf(&b, "[%s] ", strings.ToUpper(lvl))
	}
	b.WriteString(msg)

	for _, k := range slices.Sorted(maps.Keys(m)) {
		if skipKeys[k] {
			continue
		}
		v := fmt.Sprint(m[k])
		if k == "stack" {
			fmt.Fprintf(&b, "\n- stack=\n%s", truncate(v, maxStackLen))
			continue
		}
		fmt.Fprintf(&b, "\n- %s=%s", k, truncate(v, maxValueLen))
	}
	return truncate(b.String(), maxMessageLen)
}

func truncate(s string, n int) string {
	switch {
	case n <= 0 || len(s) <= n:
		return s
	case n < 10:
		return s[:n]
	}
	return s[:n-3] + "..."
}
