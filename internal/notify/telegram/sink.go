// Package telegram delivers deal alerts as MarkdownV2 chat messages.
package telegram

import (
	"context"

	"raton/internal/flight"
	"raton/internal/notify"
	"raton/internal/rules"
	kit "raton/internal/transport"
	logx "raton/pkg/logx"
)

// Sink formats deals and hands them to a transport.Sender.
type Sink struct {
	sender kit.Sender
	log    logx.Logger
}

var _ notify.Sink = (*Sink)(nil)

func New(sender kit.Sender, log logx.Logger) *Sink {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Sink{sender: sender, log: log.With(logx.String("comp", "notify.telegram"))}
}

// SendDeal returns nil on success or a *notify.Error.
func (s *Sink) SendDeal(ctx context.Context, chatID int64, o flight.Offer, m rules.MatchResult) error {
	text := FormatDeal(o, m)
	ref, err := s.sender.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, &kit.SendOptions{
		ParseMode:      kit.ParseMarkdownV2,
		DisablePreview: true,
	})
	if err != nil {
		ne := classify(chatID, err)
		s.log.Warn("deal notification failed",
			logx.Int64("chat_id", chatID),
			logx.String("offer_id", o.ID),
			logx.String("kind", string(ne.Kind)),
			logx.Err(err),
		)
		return ne
	}
	s.log.Info("deal notification sent",
		logx.Int64("chat_id", chatID),
		logx.String("offer_id", o.ID),
		logx.Int("message_id", ref.MessageID),
	)
	return nil
}
