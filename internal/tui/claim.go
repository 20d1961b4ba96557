package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evfalk/refund-helper/claims"
)

// Claim screen fields, in focus order.
const (
	claimFieldOperator = iota
	claimFieldDeparture
	claimFieldArrival
	claimFieldDate
	claimFieldTime
	claimFieldSubmit

	claimFieldCount
)

type claimForm struct {
	date textinput.Model
}

func newClaimForm() claimForm {
	date := textinput.New()
	date.Placeholder = "YYYY-MM-DD"
	date.CharLimit = 10

	return claimForm{date: date}
}

func (form claimForm) typing(focus int) bool {
	return focus == claimFieldDate
}

func (form *claimForm) syncFocus(active bool, focus int) {
	form.date.Blur()

	if active && focus == claimFieldDate {
		form.date.Focus()
	}
}

func (m Model) updateClaim(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	focus := m.focus[TabClaim]

	switch {
	case key.Matches(msg, m.keys.NextField):
		m.moveFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.moveFocus(-1)
		return m, nil
	}

	switch focus {
	case claimFieldOperator:
		switch {
		case key.Matches(msg, m.keys.PrevItem) && m.operatorCursor > 0:
			m.operatorCursor--

		case key.Matches(msg, m.keys.NextItem) && m.operatorCursor < len(claims.Operators)-1:
			m.operatorCursor++
		}

		return m, nil

	case claimFieldDeparture:
		moved := false
		switch {
		case key.Matches(msg, m.keys.PrevItem) && m.stationCursor > 0:
			m.stationCursor--
			moved = true

		case key.Matches(msg, m.keys.NextItem) && m.stationCursor < len(claims.DepartureStations)-1:
			m.stationCursor++
			moved = true
		}

		if !moved {
			return m, nil
		}

		station := claims.DepartureStations[m.stationCursor].Name
		arrivalToken := m.search.SelectDepartureStation(station)
		departuresToken := m.search.NextDeparturesQuery()
		return m, m.stationChangeCmd(station, m.search.Date, arrivalToken, departuresToken)

	case claimFieldArrival:
		cursor := m.arrivalCursor()
		moved := false
		switch {
		case key.Matches(msg, m.keys.PrevItem) && cursor > 0:
			cursor--
			moved = true

		case key.Matches(msg, m.keys.NextItem) && cursor < len(m.search.ArrivalOptions)-1:
			cursor++
			moved = true
		}

		if !moved {
			return m, nil
		}

		token := m.search.SelectArrivalStation(m.search.ArrivalOptions[cursor].Name)
		return m, m.departuresCmd(token)

	case claimFieldDate:
		if key.Matches(msg, m.keys.Activate) {
			token := m.search.SelectDate(m.claimForm.date.Value())
			return m, m.departuresCmd(token)
		}

		var cmd tea.Cmd
		m.claimForm.date, cmd = m.claimForm.date.Update(msg)
		return m, cmd

	case claimFieldTime:
		switch {
		case key.Matches(msg, m.keys.PrevItem) && m.timeCursor > 0:
			m.timeCursor--

		case key.Matches(msg, m.keys.NextItem) && m.timeCursor < len(m.search.DepartureTimes)-1:
			m.timeCursor++
		}

		if m.timeCursor >= 0 && m.timeCursor < len(m.search.DepartureTimes) {
			m.search.SelectedTime = m.search.DepartureTimes[m.timeCursor]
		}

		return m, nil

	case claimFieldSubmit:
		if key.Matches(msg, m.keys.Activate) && !m.claimNotice.busy {
			return m.beginManualSubmit()
		}

		return m, nil
	}

	return m, nil
}

func (m Model) arrivalCursor() int {
	for i, option := range m.search.ArrivalOptions {
		if option.Name == m.search.ArrivalStation {
			return i
		}
	}

	return 0
}

// claimFields serializes the refund form: every field present, empty
// when unset.
func (m Model) claimFields() map[string]string {
	return map[string]string{
		"operator":      claims.Operators[m.operatorCursor].Value,
		"ticket":        m.ticketForm.number.Value(),
		"from":          m.search.DepartureStation,
		"to":            m.search.ArrivalStation,
		"departureDate": m.claimForm.date.Value(),
		"departureTime": m.search.SelectedTime,
	}
}

// beginManualSubmit applies the expired-ticket gate: an expired
// stored ticket needs an explicit confirmation before anything is
// sent.
func (m Model) beginManualSubmit() (tea.Model, tea.Cmd) {
	fields := m.claimFields()

	if claims.NeedsExpiryConfirmation(m.state.ExpiryDate, claims.Today()) {
		m.confirm = &confirmPrompt{
			prompt: claims.ExpiryPrompt(m.state.ExpiryDate),
			fields: fields,
		}
		return m, nil
	}

	return m.submitClaim(fields)
}

func (m Model) submitClaim(fields map[string]string) (tea.Model, tea.Cmd) {
	m.claimNotice = notice{busy: true}
	return m, tea.Batch(m.spinner.Tick, m.manualSubmitCmd(fields))
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		fields := m.confirm.fields
		m.confirm = nil
		return m.submitClaim(fields)

	case "n", "N", "esc":
		m.confirm = nil
		return m, nil
	}

	return m, nil
}

func (m Model) viewConfirm() string {
	return strings.Join([]string{
		m.theme.Alert.Render(m.confirm.prompt),
		"",
		m.theme.Label.Render("[y] submit anyway    [n] cancel"),
	}, "\n")
}

func (m Model) viewClaim() string {
	focus := m.focus[TabClaim]

	operator := "‹ " + claims.Operators[m.operatorCursor].Label + " ›"
	departure := "‹ " + claims.DepartureStations[m.stationCursor].LongName + " ›"

	arrival := "—"
	if options := m.search.ArrivalOptions; len(options) > 0 {
		arrival = "‹ " + options[m.arrivalCursor()].LongName + " ›"
	}

	departureTime := "—"
	if times := m.search.DepartureTimes; len(times) > 0 && m.timeCursor >= 0 && m.timeCursor < len(times) {
		departureTime = "‹ " + times[m.timeCursor] + " ›"
	}

	lines := []string{
		m.renderRow(focus == claimFieldOperator, "Operator", operator),
		m.renderRow(focus == claimFieldDeparture, "From", departure),
		m.renderRow(focus == claimFieldArrival, "To", arrival),
		m.renderRow(focus == claimFieldDate, "Date", m.claimForm.date.View()),
		m.renderRow(focus == claimFieldTime, "Departure time", departureTime),
		m.renderRow(focus == claimFieldSubmit, "", "[ Submit claim ]"),
	}

	if rendered := m.renderNotice(m.claimNotice); len(rendered) > 0 {
		lines = append(lines, "", rendered)
	}

	return strings.Join(lines, "\n")
}

// Commands and message application.

// stationChangeCmd runs the two dependent queries of a departure
// station change sequentially in one goroutine: the arrival-station
// fetch completes before the departures query uses its result.
func (m Model) stationChangeCmd(station, date string, arrivalToken, departuresToken uint64) tea.Cmd {
	flow := m.search

	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()

		stations, err := flow.LookupArrivalStations(ctx, station)
		if err != nil {
			return stationChangeMsg{
				arrivalToken:    arrivalToken,
				departuresToken: departuresToken,
				arrivalErr:      err,
			}
		}

		arrival := ""
		if len(stations) > 0 {
			arrival = stations[0].Name
		}

		times, err := flow.FetchDepartures(ctx, station, arrival, date)
		return stationChangeMsg{
			arrivalToken:    arrivalToken,
			departuresToken: departuresToken,
			stations:        stations,
			arrival:         arrival,
			times:           times,
			departuresErr:   err,
		}
	}
}

func (m Model) departuresCmd(token uint64) tea.Cmd {
	flow := m.search
	departure := flow.DepartureStation
	arrival := flow.ArrivalStation
	date := flow.Date

	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()

		times, err := flow.FetchDepartures(ctx, departure, arrival, date)
		return departuresMsg{token: token, times: times, err: err}
	}
}

func (m Model) warmCacheCmd() tea.Cmd {
	flow := m.search

	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()

		_ = flow.WarmArrivalCache(ctx, claims.DepartureStations)
		return warmCacheMsg{}
	}
}

func (m Model) manualSubmitCmd(fields map[string]string) tea.Cmd {
	manual := m.manual

	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()

		body, err := manual.Submit(ctx, fields, func(string) bool {
			// The expiry gate already ran in the UI before this
			// command was issued
			return true
		})
		return manualResultMsg{body: body, err: err}
	}
}

func (m Model) applyStationChange(msg stationChangeMsg) Model {
	if msg.arrivalErr != nil {
		m.logger.Error().Err(msg.arrivalErr).Msg("Arrival station lookup failed")
		m.claimNotice = notice{text: "Could not load arrival stations", kind: noticeAlert}
		return m
	}

	m.search.ApplyArrivalStations(msg.arrivalToken, msg.stations)

	if msg.departuresErr != nil {
		m.search.KeepDepartures(msg.departuresErr)
		m.claimNotice = notice{text: "Could not refresh departures", kind: noticeAlert}
		return m
	}

	if m.search.ApplyDepartures(msg.departuresToken, msg.times) {
		m.timeCursor = len(m.search.DepartureTimes) - 1
	}

	return m
}

func (m Model) applyDepartures(msg departuresMsg) Model {
	if msg.err != nil {
		m.search.KeepDepartures(msg.err)
		m.claimNotice = notice{text: "Could not refresh departures", kind: noticeAlert}
		return m
	}

	if m.search.ApplyDepartures(msg.token, msg.times) {
		m.timeCursor = len(m.search.DepartureTimes) - 1
	}

	return m
}

func (m Model) applyManualResult(msg manualResultMsg) Model {
	switch {
	case errors.Is(msg.err, claims.ErrDeclined):
		m.claimNotice = notice{}

	case msg.err != nil:
		m.claimNotice = notice{text: "Request failed", kind: noticeAlert}

	default:
		m.claimNotice = notice{text: msg.body, kind: noticeSuccess}
	}

	return m
}
