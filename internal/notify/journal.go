package notify

import (
	"context"
	"time"

	"raton/internal/flight"
	"raton/internal/rules"
	"raton/internal/storage"
	logx "raton/pkg/logx"
)

type journalSink struct {
	next    Sink
	journal storage.Store
	log     logx.Logger
	now     func() time.Time
}

// WithJournal records every successful delivery of next in journal.
// A journal failure is logged and never reported as a delivery failure.
// A nil journal returns next unchanged.
func WithJournal(next Sink, journal storage.Store, log logx.Logger) Sink {
	if journal == nil {
		return next
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &journalSink{next: next, journal: journal, log: log.With(logx.String("comp", "notify.journal")), now: time.Now}
}

func (s *journalSink) SendDeal(ctx context.Context, chatID int64, o flight.Offer, m rules.MatchResult) error {
	if err := s.next.SendDeal(ctx, chatID, o, m); err != nil {
		return err
	}
	rec := storage.NewDealRecord(s.now(), chatID, o, m)
	if err := s.journal.AppendDeal(ctx, rec); err != nil {
		s.log.Warn("deal journal append failed",
			logx.Int64("chat_id", chatID),
			logx.String("offer_id", o.ID),
			logx.Err(err),
		)
	}
	return nil
}
