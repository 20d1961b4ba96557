package claims

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/evfalk/refund-helper/claims/api"
	"github.com/evfalk/refund-helper/profile"
)

// ErrDeclined is returned when the user answers no to the expired
// ticket confirmation. No request was sent.
var ErrDeclined = errors.New("submission declined")

// ConfirmFunc answers an interactive yes/no question.
type ConfirmFunc func(prompt string) bool

// Operators selectable on the manual claim form.
var Operators = []struct {
	Value string
	Label string
}{
	{Value: "sj", Label: "SJ"},
	{Value: "mt", Label: "Movingo"},
}

// ManualSubmission serializes the refund form plus the active ticket
// holder and posts it as a single claim.
type ManualSubmission struct {
	client *api.Client
	store  profile.Store
	logger zerolog.Logger

	// Now returns "today" as an ISO date string. Overridable in tests.
	Now func() string
}

func NewManualSubmission(client *api.Client, store profile.Store, logger zerolog.Logger) *ManualSubmission {
	return &ManualSubmission{
		client: client,
		store:  store,
		logger: logger,
		Now:    Today,
	}
}

// Submit sends the claim unless the stored ticket has expired and the
// user declines the confirmation prompt. Missing form values are sent
// as empty strings; the selected holder rides along as "customer".
// The returned string is the server's literal response body.
func (ms *ManualSubmission) Submit(ctx context.Context, fields map[string]string, confirm ConfirmFunc) (string, error) {
	state, err := ms.store.Load()
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}

	if NeedsExpiryConfirmation(state.ExpiryDate, ms.Now()) && !confirm(ExpiryPrompt(state.ExpiryDate)) {
		ms.logger.Info().Str("expiry", state.ExpiryDate).Msg("Submission cancelled at expired ticket prompt")
		return "", ErrDeclined
	}

	var customer *profile.TicketHolder
	if holder, found := state.SelectedTicketHolder(); found {
		customer = &holder
	}

	ms.logger.Info().Int("fields", len(fields)).Msg("Submitting manual refund claim")
	body, err := ms.client.SubmitClaim(ctx, fields, customer)
	if err != nil {
		ms.logger.Error().Err(err).Msg("Manual claim submission failed")
		return "", fmt.Errorf("submit claim: %w", err)
	}

	return body, nil
}
