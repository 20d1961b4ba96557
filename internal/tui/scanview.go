package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evfalk/refund-helper/claims"
	"github.com/evfalk/refund-helper/claims/api"
)

// Scan screen fields, in focus order. The checklist rows that appear
// after a successful scan extend the focus range dynamically: the
// select-all box, one row per candidate, then the submit action.
const (
	scanFieldDate = iota
	scanFieldStartTime
	scanFieldAPIKey
	scanFieldStart

	scanFieldCount
)

type scanForm struct {
	date      textinput.Model
	startTime textinput.Model
	apiKey    textinput.Model
}

func newScanForm(storedKey string) scanForm {
	date := textinput.New()
	date.Placeholder = "YYYY-MM-DD"
	date.CharLimit = 10

	startTime := textinput.New()
	startTime.Placeholder = "HH:MM"
	startTime.CharLimit = 5

	apiKey := textinput.New()
	apiKey.Placeholder = "Trafikverket API key"
	apiKey.CharLimit = 128
	apiKey.EchoMode = textinput.EchoPassword
	// Pre-fill the cached credential so it never has to be re-entered
	apiKey.SetValue(storedKey)

	return scanForm{date: date, startTime: startTime, apiKey: apiKey}
}

func (form scanForm) typing(focus int) bool {
	return focus == scanFieldDate || focus == scanFieldStartTime || focus == scanFieldAPIKey
}

func (form *scanForm) syncFocus(active bool, focus int) {
	form.date.Blur()
	form.startTime.Blur()
	form.apiKey.Blur()

	if !active {
		return
	}

	switch focus {
	case scanFieldDate:
		form.date.Focus()

	case scanFieldStartTime:
		form.startTime.Focus()

	case scanFieldAPIKey:
		form.apiKey.Focus()
	}
}

func (m Model) updateScan(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focus := m.focus[TabScan]

	switch {
	case key.Matches(msg, m.keys.NextField):
		m.moveFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.moveFocus(-1)
		return m, nil
	}

	switch focus {
	case scanFieldDate:
		var cmd tea.Cmd
		m.scanForm.date, cmd = m.scanForm.date.Update(msg)
		return m, cmd

	case scanFieldStartTime:
		var cmd tea.Cmd
		m.scanForm.startTime, cmd = m.scanForm.startTime.Update(msg)
		return m, cmd

	case scanFieldAPIKey:
		var cmd tea.Cmd
		m.scanForm.apiKey, cmd = m.scanForm.apiKey.Update(msg)
		return m, cmd

	case scanFieldStart:
		if key.Matches(msg, m.keys.Activate) && !m.scanNotice.busy {
			return m.beginScan()
		}

		return m, nil
	}

	// Checklist rows.
	rowCount := len(m.scan.Candidates())
	selectAllRow := scanFieldCount
	submitRow := scanFieldCount + 1 + rowCount

	switch {
	case focus == selectAllRow && key.Matches(msg, m.keys.Toggle):
		m.scan.ToggleSelectAll()

	case focus > selectAllRow && focus < submitRow && key.Matches(msg, m.keys.Toggle):
		m.scan.ToggleRow(focus - selectAllRow - 1)

	case focus == submitRow && key.Matches(msg, m.keys.Activate) && !m.scanNotice.busy:
		return m.beginSubmitSelected()
	}

	return m, nil
}

// beginScan starts phase one: persist or fall back on the credential
// and post the scan request.
func (m Model) beginScan() (tea.Model, tea.Cmd) {
	m.scanNotice = notice{text: "Submitting...", kind: noticeSuccess, busy: true}
	m.scanList = nil
	m.focus[TabScan] = scanFieldStart

	return m, tea.Batch(m.spinner.Tick, m.scanCmd(
		m.scanForm.date.Value(),
		m.scanForm.startTime.Value(),
		m.scanForm.apiKey.Value(),
	))
}

// beginSubmitSelected starts phase two with the checked candidates.
// An empty selection never reaches the network.
func (m Model) beginSubmitSelected() (tea.Model, tea.Cmd) {
	selected := m.scan.Selected()
	if len(selected) == 0 {
		m.scanNotice = notice{text: claims.NoSelectionMessage, kind: noticeAlert}
		return m, nil
	}

	m.scanNotice = notice{busy: true}
	return m, tea.Batch(m.spinner.Tick, m.submitSelectedCmd(selected))
}

func (m Model) scanCmd(date, startTime, credential string) tea.Cmd {
	scan := m.scan

	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()

		result, err := scan.Scan(ctx, date, startTime, credential)
		return scanResultMsg{result: result, err: err}
	}
}

func (m Model) submitSelectedCmd(items []api.ScanCandidate) tea.Cmd {
	scan := m.scan

	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()

		message, err := scan.Submit(ctx, items)
		return submitSelectedMsg{message: message, err: err}
	}
}

func (m Model) applyScanResult(msg scanResultMsg) Model {
	if msg.err != nil {
		m.scanNotice = notice{text: "Request failed: " + transportBody(msg.err), kind: noticeAlert}
		m.scanList = nil
		return m
	}

	m.scanNotice = notice{}
	m.scanList = &checklistState{
		message: m.scan.ResultMessage(msg.result),
		visible: m.scan.ApplyResult(msg.result),
	}

	// Refresh the cached credential shown in the form
	if state, err := m.store.Load(); err == nil {
		m.state.APIKey = state.APIKey
	}

	return m
}

func (m Model) applySubmitSelected(msg submitSelectedMsg) Model {
	if msg.err != nil {
		m.scanNotice = notice{text: "Request failed: " + transportBody(msg.err), kind: noticeAlert}
		return m
	}

	m.scanNotice = notice{text: msg.message, kind: noticeSuccess}
	return m
}

// transportBody extracts the server's error body when there is one.
func transportBody(err error) string {
	var transportErr *api.TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Body
	}

	return ""
}

func (m Model) viewScan() string {
	focus := m.focus[TabScan]

	lines := []string{
		m.renderRow(focus == scanFieldDate, "Date", m.scanForm.date.View()),
		m.renderRow(focus == scanFieldStartTime, "Start time", m.scanForm.startTime.View()),
		m.renderRow(focus == scanFieldAPIKey, "API key", m.scanForm.apiKey.View()),
		m.renderRow(focus == scanFieldStart, "", "[ Start scan ]"),
	}

	if rendered := m.renderNotice(m.scanNotice); len(rendered) > 0 {
		lines = append(lines, "", rendered)
	}

	if m.scanList == nil {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "", m.theme.Label.Render(m.scanList.message))

	if m.scanList.visible {
		selectAllRow := scanFieldCount
		submitRow := scanFieldCount + 1 + len(m.scan.Candidates())

		lines = append(lines, m.renderRow(focus == selectAllRow, "", m.checkbox(m.scan.SelectAll())+" Select All"))

		for i, candidate := range m.scan.Candidates() {
			row := selectAllRow + 1 + i
			lines = append(lines, m.renderRow(focus == row, "", m.checkbox(m.scan.Checked(i))+" "+candidate.Summary()))
		}

		lines = append(lines, m.renderRow(focus == submitRow, "", "[ Submit selected ]"))
	}

	return strings.Join(lines, "\n")
}

func (m Model) checkbox(checked bool) string {
	if checked {
		return m.theme.Checkbox.Render("[x]")
	}

	return "[ ]"
}
