package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evfalk/refund-helper/claims"
	"github.com/evfalk/refund-helper/profile"
)

// Ticket screen fields, in focus order.
const (
	ticketFieldHolder = iota
	ticketFieldNumber
	ticketFieldExpiry
	ticketFieldSave

	ticketFieldCount
)

type ticketForm struct {
	number textinput.Model
	expiry textinput.Model
}

func newTicketForm(state profile.State) ticketForm {
	number := textinput.New()
	number.Placeholder = "ticket number"
	number.CharLimit = 64
	number.SetValue(state.TicketID)

	expiry := textinput.New()
	expiry.Placeholder = "YYYY-MM-DD"
	expiry.CharLimit = 10
	expiry.SetValue(state.ExpiryDate)

	return ticketForm{number: number, expiry: expiry}
}

func (form ticketForm) typing(focus int) bool {
	return focus == ticketFieldNumber || focus == ticketFieldExpiry
}

func (form *ticketForm) syncFocus(active bool, focus int) {
	form.number.Blur()
	form.expiry.Blur()

	if !active {
		return
	}

	switch focus {
	case ticketFieldNumber:
		form.number.Focus()

	case ticketFieldExpiry:
		form.expiry.Focus()
	}
}

func (m Model) updateTicket(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focus := m.focus[TabTicket]

	switch {
	case key.Matches(msg, m.keys.NextField):
		m.moveFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.moveFocus(-1)
		return m, nil
	}

	switch focus {
	case ticketFieldHolder:
		switch {
		case key.Matches(msg, m.keys.PrevItem) && m.holderCursor > 0:
			m.holderCursor--

		case key.Matches(msg, m.keys.NextItem) && m.holderCursor < len(m.options)-1:
			m.holderCursor++

		case key.Matches(msg, m.keys.NewHolder):
			m.dialog = newHolderDialog()

		case key.Matches(msg, m.keys.Edit):
			holder, found := m.selectedHolder()
			if !found {
				m.ticketNotice = notice{text: "No ticket holder selected", kind: noticeAlert}
				return m, nil
			}

			m.dialog = editHolderDialog(holder)
		}

		return m, nil

	case ticketFieldSave:
		if key.Matches(msg, m.keys.Activate) {
			return m.saveTicketDetails(), nil
		}

		return m, nil

	case ticketFieldNumber:
		var cmd tea.Cmd
		m.ticketForm.number, cmd = m.ticketForm.number.Update(msg)
		return m, cmd

	case ticketFieldExpiry:
		var cmd tea.Cmd
		m.ticketForm.expiry, cmd = m.ticketForm.expiry.Update(msg)
		return m, cmd
	}

	return m, nil
}

// saveTicketDetails persists the selected holder, ticket number, and
// expiry date.
func (m Model) saveTicketDetails() Model {
	selected := ""
	if m.holderCursor >= 0 && m.holderCursor < len(m.options) {
		selected = m.options[m.holderCursor].ID
	}

	number := m.ticketForm.number.Value()
	expiry := m.ticketForm.expiry.Value()

	err := m.store.Save(profile.Patch{
		SelectedHolder: &selected,
		TicketID:       &number,
		ExpiryDate:     &expiry,
	})
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to save ticket details")
		m.ticketNotice = notice{text: "Failed to save details", kind: noticeAlert}
		return m
	}

	m.state.SelectedHolder = selected
	m.state.TicketID = number
	m.state.ExpiryDate = expiry
	m.ticketNotice = notice{text: "Details saved", kind: noticeSuccess}
	return m
}

func (m Model) viewTicket() string {
	var lines []string

	if holder, found := m.selectedHolder(); found && len(m.state.ExpiryDate) > 0 {
		summary := claims.Summarize(holder, m.state.ExpiryDate, claims.Today())

		style := m.theme.Label
		if summary.Style == claims.StyleAlert {
			style = m.theme.Alert
		}

		lines = append(lines, style.Render(summary.Text), "")
	}

	focus := m.focus[TabTicket]

	holderValue := "none (press n to add one)"
	if m.holderCursor >= 0 && m.holderCursor < len(m.options) {
		holderValue = "‹ " + m.options[m.holderCursor].Label + " ›"
	}

	lines = append(lines,
		m.renderRow(focus == ticketFieldHolder, "Ticket holder", holderValue+"  "+m.theme.Faint.Render("n new · e edit")),
		m.renderRow(focus == ticketFieldNumber, "Ticket number", m.ticketForm.number.View()),
		m.renderRow(focus == ticketFieldExpiry, "Expiry date", m.ticketForm.expiry.View()),
		m.renderRow(focus == ticketFieldSave, "", "[ Save details ]"),
	)

	if rendered := m.renderNotice(m.ticketNotice); len(rendered) > 0 {
		lines = append(lines, "", rendered)
	}

	return strings.Join(lines, "\n")
}

// renderRow renders one "label: widget" line with a focus marker.
func (m Model) renderRow(focused bool, label, value string) string {
	marker := "  "
	if focused {
		marker = m.theme.Focused.Render("> ")
	}

	if len(label) == 0 {
		return marker + value
	}

	return marker + m.theme.Label.Render(padRight(label, 18)) + value
}

func padRight(text string, width int) string {
	if len(text) >= width {
		return text
	}

	return text + strings.Repeat(" ", width-len(text))
}

// Holder dialog.

var holderFieldLabels = [...]string{
	"First name",
	"Surname",
	"Street address",
	"Postal code",
	"City",
	"Identity number",
	"Phone number",
	"Email",
}

// holderDialog is the add/edit overlay. An empty editID means create
// mode; otherwise submitting updates the existing record in place.
type holderDialog struct {
	title  string
	button string
	editID string
	inputs [len(holderFieldLabels)]textinput.Model
	focus  int
}

func newHolderDialog() *holderDialog {
	dialog := &holderDialog{
		title:  "Add ticket holder",
		button: "Add",
	}

	dialog.initInputs(profile.TicketHolder{})
	return dialog
}

func editHolderDialog(holder profile.TicketHolder) *holderDialog {
	dialog := &holderDialog{
		title:  "Edit ticket holder",
		button: "Save",
		editID: holder.ID,
	}

	dialog.initInputs(holder)
	return dialog
}

func (dialog *holderDialog) initInputs(holder profile.TicketHolder) {
	values := [...]string{
		holder.FirstName,
		holder.SurName,
		holder.StreetNameAndNumber,
		holder.PostalCode,
		holder.City,
		holder.IdentityNumber,
		holder.MobileNumber,
		holder.Email,
	}

	for i := range dialog.inputs {
		input := textinput.New()
		input.Placeholder = holderFieldLabels[i]
		input.CharLimit = 128
		input.SetValue(values[i])
		dialog.inputs[i] = input
	}

	dialog.inputs[0].Focus()
}

func (dialog *holderDialog) setFocus(focus int) {
	if focus < 0 || focus > len(dialog.inputs) {
		return
	}

	dialog.focus = focus
	for i := range dialog.inputs {
		dialog.inputs[i].Blur()
	}

	if focus < len(dialog.inputs) {
		dialog.inputs[focus].Focus()
	}
}

func (dialog *holderDialog) holder() profile.TicketHolder {
	return profile.TicketHolder{
		ID:                  dialog.editID,
		FirstName:           dialog.inputs[0].Value(),
		SurName:             dialog.inputs[1].Value(),
		StreetNameAndNumber: dialog.inputs[2].Value(),
		PostalCode:          dialog.inputs[3].Value(),
		City:                dialog.inputs[4].Value(),
		IdentityNumber:      dialog.inputs[5].Value(),
		MobileNumber:        dialog.inputs[6].Value(),
		Email:               dialog.inputs[7].Value(),
	}
}

func (m Model) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dialog := m.dialog

	switch {
	case key.Matches(msg, m.keys.Close):
		m.dialog = nil
		return m, nil

	case key.Matches(msg, m.keys.NextField), msg.Type == tea.KeyTab:
		dialog.setFocus(dialog.focus + 1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField), msg.Type == tea.KeyShiftTab:
		dialog.setFocus(dialog.focus - 1)
		return m, nil

	case key.Matches(msg, m.keys.Activate):
		if dialog.focus < len(dialog.inputs) {
			dialog.setFocus(dialog.focus + 1)
			return m, nil
		}

		return m.submitDialog(), nil
	}

	if dialog.focus < len(dialog.inputs) {
		var cmd tea.Cmd
		dialog.inputs[dialog.focus], cmd = dialog.inputs[dialog.focus].Update(msg)
		return m, cmd
	}

	return m, nil
}

// submitDialog upserts the dialog's holder, persists the map, and
// refreshes the picker.
func (m Model) submitDialog() Model {
	stored := m.state.Holders.Upsert(m.dialog.holder())

	if err := m.store.Save(profile.Patch{Holders: &m.state.Holders}); err != nil {
		m.logger.Error().Err(err).Msg("Failed to save ticket holders")
		m.ticketNotice = notice{text: "Failed to save ticket holder", kind: noticeAlert}
		m.dialog = nil
		return m
	}

	m.options = m.state.Holders.Options()
	m.holderCursor = indexOfOption(m.options, stored.ID)
	m.ticketNotice = notice{}
	m.dialog = nil
	return m
}

func (m Model) viewDialog() string {
	dialog := m.dialog

	lines := []string{m.theme.Title.Render(dialog.title), ""}
	for i, input := range dialog.inputs {
		lines = append(lines, m.renderRow(dialog.focus == i, holderFieldLabels[i], input.View()))
	}

	lines = append(lines,
		"",
		m.renderRow(dialog.focus == len(dialog.inputs), "", "[ "+dialog.button+" ]"),
		"",
		m.theme.Faint.Render("enter next/submit · esc cancel"),
	)

	return strings.Join(lines, "\n")
}
