package telegram

import (
	"context"
	"errors"
	"net"
	"net/url"
	"regexp"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"raton/internal/notify"
)

// unknown Bot API errors surface as "telegram: <description> (<code>)".
var trailingCode = regexp.MustCompile(`\((\d+)\)$`)

// classify tags a delivery error for chatID. Auth failures come from a
// bad token; a missing, blocked or forbidden chat is chat_not_found.
func classify(chatID int64, err error) *notify.Error {
	if err == nil {
		return nil
	}
	kind := notify.KindDelivery
	switch code := statusCode(err); {
	case code == 401:
		kind = notify.KindAuth
	case code == 400 || code == 403:
		kind = notify.KindChatNotFound
	case code == 0 && isNetwork(err):
		kind = notify.KindNetwork
	}
	return &notify.Error{Kind: kind, ChatID: chatID, Err: err}
}

func statusCode(err error) int {
	var te *tele.Error
	if errors.As(err, &te) {
		return te.Code
	}
	if m := trailingCode.FindStringSubmatch(err.Error()); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

func isNetwork(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
