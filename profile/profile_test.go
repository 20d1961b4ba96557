package profile

import (
	"errors"
	"testing"
)

func TestUpsertAssignsID(t *testing.T) {
	holders := Holders{}

	stored := holders.Upsert(TicketHolder{FirstName: "Anna", SurName: "Berg"})
	if len(stored.ID) == 0 {
		t.Fatal("upsert should assign an ID to a new holder")
	}

	if _, found := holders[stored.ID]; !found {
		t.Fatalf("holder should be stored under its ID, map: %#v", holders)
	}
}

func TestUpsertKeepsExistingID(t *testing.T) {
	holders := Holders{}
	stored := holders.Upsert(TicketHolder{FirstName: "Anna", SurName: "Berg"})

	stored.FirstName = "Anne"
	updated := holders.Upsert(stored)

	if updated.ID != stored.ID {
		t.Errorf("editing should keep the ID, got %q want %q", updated.ID, stored.ID)
	}
	if len(holders) != 1 {
		t.Errorf("editing a name should not fork a duplicate entry, have %d holders", len(holders))
	}
	if holders[stored.ID].FirstName != "Anne" {
		t.Errorf("edit should update in place, got %q", holders[stored.ID].FirstName)
	}
}

func TestGetUnknownHolder(t *testing.T) {
	holders := Holders{}

	_, err := holders.Get("missing")
	if !errors.Is(err, ErrUnknownHolder) {
		t.Fatalf("expected ErrUnknownHolder, got %v", err)
	}
}

func TestOptionsSortedByLabel(t *testing.T) {
	holders := Holders{}
	holders.Upsert(TicketHolder{FirstName: "Cecilia", SurName: "Ek"})
	holders.Upsert(TicketHolder{FirstName: "Anna", SurName: "Berg"})
	holders.Upsert(TicketHolder{FirstName: "Bo", SurName: "Dahl"})

	options := holders.Options()
	if len(options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(options))
	}

	labels := []string{"Anna Berg", "Bo Dahl", "Cecilia Ek"}
	for i, want := range labels {
		if options[i].Label != want {
			t.Errorf("option %d: got %q, want %q", i, options[i].Label, want)
		}
	}
}

func TestNormalizeMigratesLegacyRecords(t *testing.T) {
	// A profile written by the legacy web client: keyed by first
	// name, no IDs.
	state := State{
		Holders: Holders{
			"Anna": {FirstName: "Anna", SurName: "Berg"},
		},
		SelectedHolder: "Anna",
	}

	state.normalize()

	if len(state.Holders) != 1 {
		t.Fatalf("expected 1 holder after migration, got %d", len(state.Holders))
	}

	for id, holder := range state.Holders {
		if len(holder.ID) == 0 || holder.ID != id {
			t.Errorf("migrated holder should be keyed by its new ID, key %q holder %#v", id, holder)
		}
		if state.SelectedHolder != id {
			t.Errorf("selection should follow the migrated record, got %q want %q", state.SelectedHolder, id)
		}
	}
}

func TestSelectedTicketHolder(t *testing.T) {
	holders := Holders{}
	stored := holders.Upsert(TicketHolder{FirstName: "Anna", SurName: "Berg"})

	state := State{Holders: holders, SelectedHolder: stored.ID}
	if holder, found := state.SelectedTicketHolder(); !found || holder.ID != stored.ID {
		t.Errorf("expected selected holder %q, got %#v found=%v", stored.ID, holder, found)
	}

	state.SelectedHolder = "stale"
	if _, found := state.SelectedTicketHolder(); found {
		t.Error("stale selection should not resolve")
	}

	state.SelectedHolder = ""
	if _, found := state.SelectedTicketHolder(); found {
		t.Error("empty selection should not resolve")
	}
}
