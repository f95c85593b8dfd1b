// Package notify defines the deal-delivery error contract and sink
// decorators. Concrete sinks live in subpackages.
package notify

import (
	"context"
	"errors"
	"fmt"

	"raton/internal/flight"
	"raton/internal/rules"
)

type Kind string

const (
	KindAuth         Kind = "auth"
	KindChatNotFound Kind = "chat_not_found"
	KindNetwork      Kind = "network"
	KindDelivery     Kind = "delivery"
)

// Error is the only error type sinks return.
type Error struct {
	Kind   Kind
	ChatID int64
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("notify %s (chat %d)", e.Kind, e.ChatID)
	}
	return fmt.Sprintf("notify %s (chat %d): %v", e.Kind, e.ChatID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a notify error, or "" when err is not one.
func KindOf(err error) Kind {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return ""
}

// Sink delivers one deal alert.
type Sink interface {
	SendDeal(ctx context.Context, chatID int64, o flight.Offer, m rules.MatchResult) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, chatID int64, o flight.Offer, m rules.MatchResult) error

func (f SinkFunc) SendDeal(ctx context.Context, chatID int64, o flight.Offer, m rules.MatchResult) error {
	return f(ctx, chatID, o, m)
}
