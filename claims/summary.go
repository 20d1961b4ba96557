package claims

import (
	"fmt"
	"time"

	"github.com/evfalk/refund-helper/profile"
)

type StyleHint int

const (
	StyleNormal StyleHint = iota
	StyleAlert
)

// TicketSummary is the human-readable ticket status line.
type TicketSummary struct {
	Text  string
	Style StyleHint
}

// Today returns the current date as an ISO date string.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// Summarize derives the ticket status from the stored expiry date.
// ISO date strings order lexicographically the same way they order
// chronologically, so a plain string comparison is enough. An expiry
// equal to today still counts as valid.
func Summarize(holder profile.TicketHolder, expiryDate, today string) TicketSummary {
	if expiryDate < today {
		return TicketSummary{
			Text:  fmt.Sprintf("Ticket (%s's ticket - EXPIRED %s)", holder.Label(), expiryDate),
			Style: StyleAlert,
		}
	}

	return TicketSummary{
		Text:  fmt.Sprintf("Ticket (%s's ticket expiring %s)", holder.Label(), expiryDate),
		Style: StyleNormal,
	}
}

// NeedsExpiryConfirmation reports whether a submission should be
// gated behind an "are you sure" prompt because the ticket already
// expired.
func NeedsExpiryConfirmation(expiryDate, today string) bool {
	return expiryDate < today
}

// ExpiryPrompt is the confirmation question shown before submitting
// on an expired ticket.
func ExpiryPrompt(expiryDate string) string {
	return fmt.Sprintf("The ticket expired on %s! Do you want to submit anyway?", expiryDate)
}
