package claims

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/evfalk/refund-helper/claims/api"
	"github.com/evfalk/refund-helper/profile"
)

func scanTestState() profile.State {
	holders := profile.Holders{}
	holder := holders.Upsert(profile.TicketHolder{FirstName: "Anna", SurName: "Berg"})

	return profile.State{
		Holders:        holders,
		SelectedHolder: holder.ID,
		APIKey:         "stored-key",
	}
}

func scanCandidates() []api.ScanCandidate {
	return []api.ScanCandidate{
		{Ticket: "123", From: "U", To: "Cst", DepartureTime: "08:00", DepartureDate: "2024-05-01", Status: "delayed"},
		{Ticket: "456", From: "U", To: "Cst", DepartureTime: "14:00", DepartureDate: "2024-05-01", Status: "cancelled"},
	}
}

func TestBuildRequestPersistsCredential(t *testing.T) {
	store := profile.NewMemStore(scanTestState())
	wf := NewScanWorkflow(nil, store, zerolog.Nop())

	scanReq, err := wf.BuildRequest("2024-05-01", "08:00", "  fresh-key  ")
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	if scanReq.APIKey != "fresh-key" {
		t.Errorf("credential should be trimmed and used, got %q", scanReq.APIKey)
	}
	if scanReq.Date != "2024-05-01" || scanReq.StartTime != "08:00" {
		t.Errorf("request fields wrong: %#v", scanReq)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if state.APIKey != "fresh-key" {
		t.Errorf("fresh credential should be cached, stored %q", state.APIKey)
	}
}

func TestBuildRequestFallsBackToStoredCredential(t *testing.T) {
	wf := NewScanWorkflow(nil, profile.NewMemStore(scanTestState()), zerolog.Nop())

	scanReq, err := wf.BuildRequest("2024-05-01", "08:00", "")
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	if scanReq.APIKey != "stored-key" {
		t.Errorf("empty credential should fall back to the stored one, got %q", scanReq.APIKey)
	}
}

func TestBuildRequestAttachesCustomerOnlyWhenResolvable(t *testing.T) {
	withSelection := scanTestState()
	wf := NewScanWorkflow(nil, profile.NewMemStore(withSelection), zerolog.Nop())

	scanReq, err := wf.BuildRequest("2024-05-01", "08:00", "key")
	if err != nil {
		t.Fatal(err)
	}
	if scanReq.Customer == nil || scanReq.Customer.FirstName != "Anna" {
		t.Errorf("selected holder should ride along: %#v", scanReq.Customer)
	}

	withoutSelection := scanTestState()
	withoutSelection.SelectedHolder = "stale"
	wf = NewScanWorkflow(nil, profile.NewMemStore(withoutSelection), zerolog.Nop())

	scanReq, err = wf.BuildRequest("2024-05-01", "08:00", "key")
	if err != nil {
		t.Fatal(err)
	}
	if scanReq.Customer != nil {
		t.Errorf("stale selection should not attach a customer: %#v", scanReq.Customer)
	}
}

func TestApplyResultVisibility(t *testing.T) {
	wf := NewScanWorkflow(nil, profile.NewMemStore(profile.State{}), zerolog.Nop())

	visible := wf.ApplyResult(&api.ScanResult{
		Status: api.ScanStatusSuccess,
		Found:  2,
		Items:  scanCandidates(),
	})
	if !visible {
		t.Fatal("a successful scan with candidates should render a checklist")
	}
	if len(wf.Candidates()) != 2 || wf.Checked(0) || wf.Checked(1) || wf.SelectAll() {
		t.Errorf("fresh result should start with nothing checked")
	}

	if wf.ApplyResult(&api.ScanResult{Status: api.ScanStatusSuccess, Found: 0}) {
		t.Error("an empty result should not render a checklist")
	}
	if wf.ApplyResult(&api.ScanResult{Status: "error", Found: 3, Items: scanCandidates()}) {
		t.Error("a non-success status should not render a checklist")
	}
	if len(wf.Candidates()) != 0 {
		t.Errorf("failed result should clear the candidate list: %#v", wf.Candidates())
	}
}

func TestResultMessage(t *testing.T) {
	wf := NewScanWorkflow(nil, profile.NewMemStore(profile.State{}), zerolog.Nop())

	if msg := wf.ResultMessage(&api.ScanResult{Message: "server says hi"}); msg != "server says hi" {
		t.Errorf("server message should win, got %q", msg)
	}

	found := wf.ResultMessage(&api.ScanResult{Status: api.ScanStatusSuccess, Found: 2})
	if found != "Found 2 delayed or cancelled departures." {
		t.Errorf("unexpected success message: %q", found)
	}

	if msg := wf.ResultMessage(&api.ScanResult{Status: api.ScanStatusSuccess, Found: 0}); msg != NoCandidatesMessage {
		t.Errorf("empty result should use the fallback, got %q", msg)
	}
}

func TestSelectAllSemantics(t *testing.T) {
	wf := NewScanWorkflow(nil, profile.NewMemStore(profile.State{}), zerolog.Nop())
	wf.ApplyResult(&api.ScanResult{Status: api.ScanStatusSuccess, Found: 2, Items: scanCandidates()})

	wf.ToggleSelectAll()
	if !wf.SelectAll() || !wf.Checked(0) || !wf.Checked(1) {
		t.Fatal("select-all should check every row")
	}

	wf.ToggleRow(1)
	if wf.SelectAll() {
		t.Error("unchecking any row should clear the select-all box")
	}
	if !wf.Checked(0) || wf.Checked(1) {
		t.Errorf("other rows should keep their state")
	}

	wf.ToggleRow(1)
	if !wf.SelectAll() {
		t.Error("checking the last unchecked row should set the select-all box")
	}

	wf.ToggleSelectAll()
	if wf.SelectAll() || wf.Checked(0) || wf.Checked(1) {
		t.Error("clearing select-all should uncheck every row")
	}
}

func TestSelectedKeepsServerOrder(t *testing.T) {
	wf := NewScanWorkflow(nil, profile.NewMemStore(profile.State{}), zerolog.Nop())
	wf.ApplyResult(&api.ScanResult{Status: api.ScanStatusSuccess, Found: 2, Items: scanCandidates()})

	wf.ToggleRow(1)
	wf.ToggleRow(0)

	selected := wf.Selected()
	if len(selected) != 2 || selected[0].Ticket != "123" || selected[1].Ticket != "456" {
		t.Errorf("selection should come back in stored order: %#v", selected)
	}
}

func TestSubmitSelectedEmptySelection(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	wf := NewScanWorkflow(api.NewClient(server.URL), profile.NewMemStore(profile.State{}), zerolog.Nop())
	wf.ApplyResult(&api.ScanResult{Status: api.ScanStatusSuccess, Found: 2, Items: scanCandidates()})

	_, err := wf.SubmitSelected(context.Background())
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("an empty selection must not reach the network")
	}
}

func TestSubmitSelected(t *testing.T) {
	var gotItems []api.ScanCandidate

	mux := http.NewServeMux()
	mux.HandleFunc("/api/submit_selected", func(w http.ResponseWriter, r *http.Request) {
		var body api.SubmitSelectedRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode submit body: %v", err)
		}
		gotItems = body.Items

		json.NewEncoder(w).Encode(api.SubmitSelectedResponse{Message: "Submitted 1 claims."})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	wf := NewScanWorkflow(api.NewClient(server.URL), profile.NewMemStore(profile.State{}), zerolog.Nop())
	wf.ApplyResult(&api.ScanResult{Status: api.ScanStatusSuccess, Found: 2, Items: scanCandidates()})
	wf.ToggleRow(0)

	message, err := wf.SubmitSelected(context.Background())
	if err != nil {
		t.Fatalf("submit selected: %v", err)
	}

	if message != "Submitted 1 claims." {
		t.Errorf("server message should be returned, got %q", message)
	}
	if !reflect.DeepEqual(gotItems, scanCandidates()[:1]) {
		t.Errorf("wrong subset submitted: %#v", gotItems)
	}
}
