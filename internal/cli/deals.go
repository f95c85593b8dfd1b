package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"

	"raton/internal/app"
	"raton/internal/storage"
)

// dealRow is the CSV shape of a journal record.
type dealRow struct {
	At            time.Time `csv:"at"`
	ChatID        int64     `csv:"chat_id"`
	OfferID       string    `csv:"offer_id"`
	Origin        string    `csv:"origin"`
	Destination   string    `csv:"destination"`
	DepartureDate string    `csv:"departure_date"`
	ReturnDate    string    `csv:"return_date,omitempty"`
	Total         string    `csv:"total"`
	Currency      string    `csv:"currency"`
	Stops         int       `csv:"stops"`
	Airline       string    `csv:"airline,omitempty"`
	Reasons       string    `csv:"reasons,omitempty"`
}

func toRow(r storage.DealRecord) dealRow {
	return dealRow{
		At:            r.At,
		ChatID:        r.ChatID,
		OfferID:       r.OfferID,
		Origin:        r.Origin,
		Destination:   r.Destination,
		DepartureDate: r.DepartureDate,
		ReturnDate:    r.ReturnDate,
		Total:         r.Total,
		Currency:      r.Currency,
		Stops:         r.Stops,
		Airline:       r.Airline,
		Reasons:       strings.Join(r.Reasons, "; "),
	}
}

func (c *CLI) newDealsCmd() *cobra.Command {
	var (
		chatID int64
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "deals",
		Short: "Print recently delivered deals from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			if format != "text" && format != "csv" {
				return fmt.Errorf("unknown --format %q (want text or csv)", format)
			}
			cfg, log, err := c.loadConfig()
			if err != nil {
				return err
			}
			journal, err := app.OpenJournal(cfg, log)
			if err != nil {
				return err
			}
			if journal == nil {
				return errors.New("deal journal is disabled (set journal.driver)")
			}
			defer journal.Close()

			recs, err := journal.RecentDeals(cmd.Context(), chatID, limit)
			if err != nil {
				return err
			}
			rows := make([]dealRow, 0, len(recs))
			for _, r := range recs {
				rows = append(rows, toRow(r))
			}
			if format == "csv" {
				b, err := csvutil.Marshal(rows)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			return writeDealsText(cmd, rows)
		},
	}
	cmd.Flags().Int64Var(&chatID, "chat", 0, "only deals sent to this chat (0: all chats)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of deals, newest first")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or csv")
	return cmd
}

func writeDealsText(cmd *cobra.Command, rows []dealRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No deals recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SENT\tCHAT\tROUTE\tDATES\tPRICE\tSTOPS\tAIRLINE")
	for _, r := range rows {
		dates := r.DepartureDate
		if r.ReturnDate != "" {
			dates += " / " + r.ReturnDate
		}
		fmt.Fprintf(tw, "%s\t%d\t%s-%s\t%s\t%s %s\t%d\t%s\n",
			r.At.Format(time.RFC3339), r.ChatID, r.Origin, r.Destination, dates, r.Total, r.Currency, r.Stops, r.Airline)
	}
	return tw.Flush()
}
