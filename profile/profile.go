package profile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var ErrUnknownHolder = errors.New("unknown ticket holder")

// TicketHolder is one saved passenger profile, used to pre-fill
// claim submissions. Holders are identified by a generated ID so
// that editing a holder's name edits the record in place instead
// of forking a duplicate entry.
type TicketHolder struct {
	ID                  string `json:"id" yaml:"id"`
	FirstName           string `json:"firstName" yaml:"firstName"`
	SurName             string `json:"surName" yaml:"surName"`
	StreetNameAndNumber string `json:"streetNameAndNumber" yaml:"streetNameAndNumber"`
	PostalCode          string `json:"postalCode" yaml:"postalCode"`
	City                string `json:"city" yaml:"city"`
	IdentityNumber      string `json:"identityNumber" yaml:"identityNumber"`
	MobileNumber        string `json:"mobileNumber" yaml:"mobileNumber"`
	Email               string `json:"email" yaml:"email"`
}

func (holder TicketHolder) Label() string {
	return fmt.Sprintf("%s %s", holder.FirstName, holder.SurName)
}

type Holders map[string]TicketHolder

// Upsert stores the holder, assigning a fresh ID first when it has
// none, and returns the stored record.
func (holders Holders) Upsert(holder TicketHolder) TicketHolder {
	if len(holder.ID) == 0 {
		holder.ID = uuid.NewString()
	}

	holders[holder.ID] = holder
	return holder
}

func (holders Holders) Get(id string) (TicketHolder, error) {
	holder, found := holders[id]
	if !found {
		return TicketHolder{}, fmt.Errorf("%w: %q", ErrUnknownHolder, id)
	}

	return holder, nil
}

// Option is one selectable entry in the holder picker.
type Option struct {
	ID    string
	Label string
}

// Options returns the holder set as picker entries sorted by label,
// so the rendered list is stable between loads.
func (holders Holders) Options() []Option {
	options := make([]Option, 0, len(holders))
	for id, holder := range holders {
		options = append(options, Option{ID: id, Label: holder.Label()})
	}

	sort.Slice(options, func(i, j int) bool {
		if options[i].Label != options[j].Label {
			return options[i].Label < options[j].Label
		}

		return options[i].ID < options[j].ID
	})

	return options
}

// State is the full persisted profile. Field names on disk keep the
// keys the legacy client stored, so an existing profile file keeps
// working.
type State struct {
	Holders        Holders `json:"ticketholders" yaml:"ticketholders"`
	SelectedHolder string  `json:"ticketholder" yaml:"ticketholder"`
	TicketID       string  `json:"ticket" yaml:"ticket"`
	ExpiryDate     string  `json:"expirydate" yaml:"expirydate"`
	APIKey         string  `json:"tv_api_key" yaml:"tv_api_key"`
}

// SelectedTicketHolder resolves the selected holder reference, which
// can be stale or unset.
func (state State) SelectedTicketHolder() (TicketHolder, bool) {
	if len(state.SelectedHolder) == 0 || state.Holders == nil {
		return TicketHolder{}, false
	}

	holder, err := state.Holders.Get(state.SelectedHolder)
	return holder, err == nil
}

// normalize repairs a freshly decoded state: a nil holder map becomes
// an empty one, and records written by the legacy web client (keyed by
// first name, no ID) are re-keyed under generated IDs. The selected
// holder reference follows the record it pointed at.
func (state *State) normalize() {
	if state.Holders == nil {
		state.Holders = Holders{}
		return
	}

	for key, holder := range state.Holders {
		if len(holder.ID) != 0 && holder.ID == key {
			continue
		}

		delete(state.Holders, key)
		stored := state.Holders.Upsert(holder)
		if state.SelectedHolder == key {
			state.SelectedHolder = stored.ID
		}
	}
}
