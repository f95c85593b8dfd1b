// Package transport holds the chat-delivery contract shared by the deal
// notifier and the operator log sink.
package transport

import "context"

// Parse modes understood by the Telegram adapter.
const (
	ParseMarkdownV2 = "MarkdownV2"
	ParseHTML       = "HTML"
)

type ChatTarget struct {
	ChatID   int64
	ThreadID int // telegram forum topic thread id (0 if none)
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender delivers text messages. Implementations split text that exceeds
// the platform limit and return the reference of the first part.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
