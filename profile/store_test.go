package profile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func tempStore(t *testing.T, name string) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), name))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := tempStore(t, "profile.json")

	state, err := store.Load()
	if err != nil {
		t.Fatalf("load of a missing profile should not fail: %v", err)
	}

	if state.Holders == nil || len(state.Holders) != 0 {
		t.Errorf("expected empty holder map, got %#v", state.Holders)
	}
	if state.TicketID != "" || state.ExpiryDate != "" || state.APIKey != "" || state.SelectedHolder != "" {
		t.Errorf("expected zero-value fields, got %#v", state)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := tempStore(t, "profile.json")

	holders := Holders{}
	stored := holders.Upsert(TicketHolder{
		FirstName:           "Anna",
		SurName:             "Berg",
		StreetNameAndNumber: "Storgatan 1",
		PostalCode:          "75310",
		City:                "Uppsala",
		IdentityNumber:      "19900101-1234",
		MobileNumber:        "0701234567",
		Email:               "anna@example.com",
	})

	if err := store.Save(Patch{Holders: &holders}); err != nil {
		t.Fatalf("save holders: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}

	got, found := state.Holders[stored.ID]
	if !found {
		t.Fatalf("saved holder not present, map: %#v", state.Holders)
	}
	if !reflect.DeepEqual(got, stored) {
		t.Errorf("holder changed across round trip:\n got %#v\nwant %#v", got, stored)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	store := tempStore(t, "profile.json")

	holders := Holders{}
	holders.Upsert(TicketHolder{ID: "fixed", FirstName: "Anna", SurName: "Berg"})

	if err := store.Save(Patch{Holders: &holders}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	first, err := store.Load()
	if err != nil {
		t.Fatalf("load after first save: %v", err)
	}

	if err := store.Save(Patch{Holders: &holders}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second, err := store.Load()
	if err != nil {
		t.Fatalf("load after second save: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated save should not change state:\n first %#v\nsecond %#v", first, second)
	}
}

func TestSaveMergesPartialPatches(t *testing.T) {
	store := tempStore(t, "profile.json")

	ticket := "ABC-123"
	if err := store.Save(Patch{TicketID: &ticket}); err != nil {
		t.Fatalf("save ticket: %v", err)
	}

	expiry := "2026-12-31"
	if err := store.Save(Patch{ExpiryDate: &expiry}); err != nil {
		t.Fatalf("save expiry: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if state.TicketID != ticket {
		t.Errorf("ticket overwritten by unrelated patch: got %q", state.TicketID)
	}
	if state.ExpiryDate != expiry {
		t.Errorf("expiry not saved: got %q", state.ExpiryDate)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	store := tempStore(t, "profile.json")

	if err := os.WriteFile(store.path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load()
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
}

func TestSaveRefusesToClobberCorruptFile(t *testing.T) {
	store := tempStore(t, "profile.json")

	if err := os.WriteFile(store.path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	key := "secret"
	if err := store.Save(Patch{APIKey: &key}); !errors.Is(err, ErrCorruptState) {
		t.Fatalf("expected save over a corrupt file to fail with ErrCorruptState, got %v", err)
	}

	raw, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "{not json" {
		t.Error("corrupt file should be left untouched for inspection")
	}
}

func TestYAMLFormat(t *testing.T) {
	store := tempStore(t, "profile.yaml")

	ticket := "ABC-123"
	if err := store.Save(Patch{TicketID: &ticket}); err != nil {
		t.Fatalf("save: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.TicketID != ticket {
		t.Errorf("yaml round trip lost ticket: got %q", state.TicketID)
	}
}

func TestSaveCredential(t *testing.T) {
	store := tempStore(t, "profile.json")

	if err := store.SaveCredential("tv-key"); err != nil {
		t.Fatalf("save credential: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.APIKey != "tv-key" {
		t.Errorf("credential not cached: got %q", state.APIKey)
	}

	// An empty credential never overwrites the cached one.
	if err := store.SaveCredential(""); err != nil {
		t.Fatalf("save empty credential: %v", err)
	}

	state, err = store.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if state.APIKey != "tv-key" {
		t.Errorf("empty credential clobbered the cache: got %q", state.APIKey)
	}
}

func TestLoadMigratesLegacyFile(t *testing.T) {
	store := tempStore(t, "profile.json")

	legacy := `{
  "ticketholders": {"Anna": {"firstName": "Anna", "surName": "Berg"}},
  "ticketholder": "Anna",
  "ticket": "ABC-123",
  "expirydate": "2026-12-31",
  "tv_api_key": "tv-key"
}`
	if err := os.WriteFile(store.path, []byte(legacy), 0600); err != nil {
		t.Fatal(err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("load legacy profile: %v", err)
	}

	holder, found := state.SelectedTicketHolder()
	if !found {
		t.Fatalf("legacy selection should survive migration, state: %#v", state)
	}
	if holder.FirstName != "Anna" || len(holder.ID) == 0 {
		t.Errorf("migrated holder wrong: %#v", holder)
	}
	if state.TicketID != "ABC-123" || state.APIKey != "tv-key" {
		t.Errorf("scalar fields lost in migration: %#v", state)
	}
}
