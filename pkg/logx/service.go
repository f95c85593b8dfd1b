package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	kit "raton/internal/transport"
)

const defaultLogFile = "./raton.log"

type Config struct {
	Level    string
	Console  bool
	File     FileConfig
	Telegram TelegramConfig
}

type FileConfig struct {
	Enabled bool
	Path    string
}

// TelegramConfig controls forwarding to the operator chat. MinLevel
// defaults to WARN and RatePerSec to 1.
type TelegramConfig struct {
	Enabled    bool
	ThreadID   int
	MinLevel   string
	RatePerSec int
}

// Service owns the log sinks and swaps them on Apply. Loggers handed out
// by the service always write through the current sinks.
type Service struct {
	root atomic.Pointer[zerolog.Logger]

	mu   sync.Mutex
	file *os.File
	fwd  *forwarder
}

// New applies cfg and returns the service with its root logger. sender
// may be nil when Telegram forwarding is never enabled.
func New(cfg Config, sender kit.Sender) (*Service, Logger) {
	s := &Service{fwd: newForwarder(sender)}
	boot := consoleRoot(parseLevel(cfg.Level, zerolog.InfoLevel))
	s.root.Store(&boot)
	s.Apply(cfg)
	return s, Logger{svc: s}
}

// SetTelegramTarget sets the chat that receives forwarded entries. A zero
// threadID keeps the configured one.
func (s *Service) SetTelegramTarget(chatID int64, threadID int) {
	s.fwd.setTarget(chatID, threadID)
}

// Apply rebuilds the sinks from cfg. It is safe for concurrent use.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}

	var sinks []io.Writer
	if cfg.Console {
		sinks = append(sinks, consoleWriter(os.Stdout))
	}
	if cfg.File.Enabled {
		if f, err := openLogFile(cfg.File.Path); err != nil {
			fmt.Fprintf(os.Stderr, "logx: %v\n", err)
		} else {
			s.file = f
			sinks = append(sinks, zerolog.SyncWriter(f))
		}
	}
	s.fwd.configure(cfg.Telegram)
	if cfg.Telegram.Enabled {
		s.fwd.start()
		sinks = append(sinks, s.fwd)
		if !s.fwd.hasTarget() {
			fmt.Fprintln(os.Stderr, "logx: telegram forwarding enabled without telegram.group_log")
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, consoleWriter(os.Stdout))
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(parseLevel(cfg.Level, zerolog.InfoLevel)).
		With().Timestamp().Logger()
	s.root.Store(&zl)
}

// Close stops forwarding and closes the log file. Loggers stay usable
// and fall back to whatever sinks remain.
func (s *Service) Close() error {
	s.fwd.stop()

	s.mu.Lock()
	f := s.file
	s.file = nil
	s.mu.Unlock()
	if f != nil {
		return f.Close()
	}
	return nil
}

func openLogFile(path string) (*os.File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultLogFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir %q: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", path, err)
	}
	return f, nil
}
