package claims

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/evfalk/refund-helper/claims/api"
	"github.com/evfalk/refund-helper/profile"
)

// ErrNoSelection is returned when a submit-selected is triggered with
// no candidates checked. No request was sent.
var ErrNoSelection = errors.New("no candidates selected")

// NoSelectionMessage is shown inline for ErrNoSelection.
const NoSelectionMessage = "Please select at least one item to submit."

// NoCandidatesMessage is the fallback shown when a scan finds nothing
// and the server supplied no message of its own.
const NoCandidatesMessage = "No delays or cancellations found."

// ScanWorkflow is the two-phase automated claim flow: a scan request
// returns candidate delay/cancellation events, the user checks a
// subset, and the subset is submitted as a second request. The
// candidate list and checkbox state live here so the selection logic
// is testable without a terminal.
type ScanWorkflow struct {
	client *api.Client
	store  profile.Store
	logger zerolog.Logger

	candidates []api.ScanCandidate
	checked    []bool
	selectAll  bool
}

func NewScanWorkflow(client *api.Client, store profile.Store, logger zerolog.Logger) *ScanWorkflow {
	return &ScanWorkflow{
		client: client,
		store:  store,
		logger: logger,
	}
}

// BuildRequest assembles the scan payload. A non-empty credential is
// persisted opportunistically so it never has to be re-entered; an
// empty one falls back to the stored value. The selected holder is
// attached only when it resolves.
func (wf *ScanWorkflow) BuildRequest(date, startTime, credential string) (api.ScanRequest, error) {
	date = strings.TrimSpace(date)
	startTime = strings.TrimSpace(startTime)
	credential = strings.TrimSpace(credential)

	state, err := wf.store.Load()
	if err != nil {
		return api.ScanRequest{}, fmt.Errorf("load profile: %w", err)
	}

	if len(credential) != 0 {
		if err := wf.store.SaveCredential(credential); err != nil {
			wf.logger.Error().Err(err).Msg("Failed to cache API credential")
		}
	} else {
		credential = state.APIKey
	}

	scanReq := api.ScanRequest{
		StartTime: startTime,
		Date:      date,
		APIKey:    credential,
	}

	if holder, found := state.SelectedTicketHolder(); found {
		scanReq.Customer = &holder
	}

	return scanReq, nil
}

// Scan runs phase one against the backend.
func (wf *ScanWorkflow) Scan(ctx context.Context, date, startTime, credential string) (*api.ScanResult, error) {
	scanReq, err := wf.BuildRequest(date, startTime, credential)
	if err != nil {
		return nil, err
	}

	wf.logger.Info().Str("date", scanReq.Date).Str("startTime", scanReq.StartTime).Msg("Scanning for delays and cancellations")
	result, err := wf.client.Scan(ctx, scanReq)
	if err != nil {
		wf.logger.Error().Err(err).Msg("Scan request failed")
		return nil, fmt.Errorf("scan for candidates: %w", err)
	}

	return result, nil
}

// ApplyResult installs a scan result and resets the selection state.
// It reports whether a checklist should be rendered.
func (wf *ScanWorkflow) ApplyResult(result *api.ScanResult) bool {
	if result.Status != api.ScanStatusSuccess || result.Found <= 0 {
		wf.candidates = nil
		wf.checked = nil
		wf.selectAll = false
		return false
	}

	wf.candidates = result.Items
	wf.checked = make([]bool, len(result.Items))
	wf.selectAll = false
	return true
}

// ResultMessage picks the line shown above (or instead of) the
// checklist.
func (wf *ScanWorkflow) ResultMessage(result *api.ScanResult) string {
	if len(result.Message) != 0 {
		return result.Message
	}

	if result.Status == api.ScanStatusSuccess && result.Found > 0 {
		return fmt.Sprintf("Found %d delayed or cancelled departures.", result.Found)
	}

	return NoCandidatesMessage
}

func (wf *ScanWorkflow) Candidates() []api.ScanCandidate {
	return wf.candidates
}

func (wf *ScanWorkflow) Checked(index int) bool {
	return index >= 0 && index < len(wf.checked) && wf.checked[index]
}

func (wf *ScanWorkflow) SelectAll() bool {
	return wf.selectAll
}

// ToggleRow flips one candidate's checkbox. Unchecking any row clears
// the select-all box; checking the last unchecked row sets it.
func (wf *ScanWorkflow) ToggleRow(index int) {
	if index < 0 || index >= len(wf.checked) {
		return
	}

	wf.checked[index] = !wf.checked[index]

	if !wf.checked[index] {
		wf.selectAll = false
		return
	}

	wf.selectAll = wf.allChecked()
}

// ToggleSelectAll flips the select-all box and propagates the new
// state to every row.
func (wf *ScanWorkflow) ToggleSelectAll() {
	wf.selectAll = !wf.selectAll
	for i := range wf.checked {
		wf.checked[i] = wf.selectAll
	}
}

func (wf *ScanWorkflow) allChecked() bool {
	if len(wf.checked) == 0 {
		return false
	}

	for _, checked := range wf.checked {
		if !checked {
			return false
		}
	}

	return true
}

// Selected returns the checked candidates in stored-index order.
func (wf *ScanWorkflow) Selected() []api.ScanCandidate {
	var selected []api.ScanCandidate
	for i, candidate := range wf.candidates {
		if wf.checked[i] {
			selected = append(selected, candidate)
		}
	}

	return selected
}

// SubmitSelected runs phase two with the checked subset. An empty
// selection is a local error and sends nothing.
func (wf *ScanWorkflow) SubmitSelected(ctx context.Context) (string, error) {
	return wf.Submit(ctx, wf.Selected())
}

// Submit posts an explicit candidate subset, captured by the caller
// before leaving the UI loop.
func (wf *ScanWorkflow) Submit(ctx context.Context, items []api.ScanCandidate) (string, error) {
	if len(items) == 0 {
		return "", ErrNoSelection
	}

	wf.logger.Info().Int("count", len(items)).Msg("Submitting selected candidates")
	resp, err := wf.client.SubmitSelected(ctx, items)
	if err != nil {
		wf.logger.Error().Err(err).Msg("Submit selected request failed")
		return "", fmt.Errorf("submit selected candidates: %w", err)
	}

	return resp.Message, nil
}
