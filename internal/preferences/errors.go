package preferences

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound Kind = "not_found"
	KindStorage  Kind = "storage"
)

// Error is the only error type Store implementations return.
type Error struct {
	Kind   Kind
	ChatID int64
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("preferences %s (chat %d)", e.Kind, e.ChatID)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func notFound(chatID int64) *Error {
	return &Error{Kind: KindNotFound, ChatID: chatID, Msg: "no preferences found"}
}

func storageErr(chatID int64, msg string, err error) *Error {
	return &Error{Kind: KindStorage, ChatID: chatID, Msg: msg, Err: err}
}

// KindOf returns the kind of a preferences error, or "" when err is not one.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
