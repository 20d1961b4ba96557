package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/evfalk/refund-helper/claims"
	"github.com/evfalk/refund-helper/claims/api"
	"github.com/evfalk/refund-helper/profile"
)

// Tab identifies the active screen.
type Tab int

const (
	// TabTicket manages ticket holders and the tracked ticket.
	TabTicket Tab = iota
	// TabClaim is the departure search plus the manual refund form.
	TabClaim
	// TabScan is the automated scan-and-submit flow.
	TabScan

	tabCount
)

// requestTimeout bounds every network call issued from the UI.
const requestTimeout = 30 * time.Second

type noticeKind int

const (
	noticeNeutral noticeKind = iota
	noticeSuccess
	noticeAlert
)

// notice is one result line under a form: plain text plus how to
// style it, optionally with a busy spinner in front.
type notice struct {
	text string
	kind noticeKind
	busy bool
}

// Config wires the model to its collaborators.
type Config struct {
	Store   profile.Store
	Client  *api.Client
	Logger  zerolog.Logger
	Initial profile.State
}

// Model is the top-level bubbletea model. All mutable state lives
// here or in the workflow structs it owns; command goroutines only
// talk to the network and report back through messages.
type Model struct {
	store  profile.Store
	client *api.Client
	logger zerolog.Logger
	theme  Theme
	keys   KeyMap

	width  int
	height int
	ready  bool

	state   profile.State
	options []profile.Option

	activeTab Tab
	focus     [tabCount]int

	spinner spinner.Model

	// Ticket screen.
	holderCursor int
	ticketForm   ticketForm
	ticketNotice notice
	dialog       *holderDialog

	// Claim screen.
	search         *claims.SearchFlow
	manual         *claims.ManualSubmission
	operatorCursor int
	stationCursor  int
	timeCursor     int
	claimForm      claimForm
	claimNotice    notice
	confirm        *confirmPrompt

	// Scan screen.
	scan       *claims.ScanWorkflow
	scanForm   scanForm
	scanNotice notice
	scanList   *checklistState

	showInfo bool
}

// confirmPrompt is the yes/no gate shown before submitting a claim on
// an expired ticket. fields holds the serialized form so a "yes" can
// proceed without re-reading the inputs.
type confirmPrompt struct {
	prompt string
	fields map[string]string
}

// checklistState tracks the rendered scan checklist: the message line
// and whether the list (select-all + rows + submit action) is shown.
type checklistState struct {
	message string
	visible bool
}

func NewModel(config Config) Model {
	model := Model{
		store:  config.Store,
		client: config.Client,
		logger: config.Logger,
		theme:  DefaultTheme,
		keys:   DefaultKeyMap,

		state:   config.Initial,
		search:  claims.NewSearchFlow(config.Client, config.Logger),
		manual:  claims.NewManualSubmission(config.Client, config.Store, config.Logger),
		scan:    claims.NewScanWorkflow(config.Client, config.Store, config.Logger),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	if model.state.Holders == nil {
		model.state.Holders = profile.Holders{}
	}

	model.options = model.state.Holders.Options()
	model.holderCursor = indexOfOption(model.options, model.state.SelectedHolder)
	if model.holderCursor < 0 {
		model.holderCursor = 0
	}

	model.ticketForm = newTicketForm(model.state)
	model.claimForm = newClaimForm()
	model.scanForm = newScanForm(model.state.APIKey)

	if len(claims.DepartureStations) > 0 {
		model.search.DepartureStation = claims.DepartureStations[0].Name
	}

	model.syncFocus()
	return model
}

func indexOfOption(options []profile.Option, id string) int {
	for i, option := range options {
		if option.ID == id {
			return i
		}
	}

	return -1
}

// selectedHolder resolves the holder under the picker cursor.
func (m Model) selectedHolder() (profile.TicketHolder, bool) {
	if m.holderCursor < 0 || m.holderCursor >= len(m.options) {
		return profile.TicketHolder{}, false
	}

	holder, found := m.state.Holders[m.options[m.holderCursor].ID]
	return holder, found
}

// Init hydrates the search flow: warm the arrival cache and run an
// initial station change for the default departure station.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.warmCacheCmd()}

	if len(m.search.DepartureStation) > 0 {
		arrivalToken := m.search.SelectDepartureStation(m.search.DepartureStation)
		departuresToken := m.search.NextDeparturesQuery()
		cmds = append(cmds, m.stationChangeCmd(m.search.DepartureStation, m.search.Date, arrivalToken, departuresToken))
	}

	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		if !m.anyBusy() {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case warmCacheMsg:
		return m, nil

	case stationChangeMsg:
		return m.applyStationChange(msg), nil

	case departuresMsg:
		return m.applyDepartures(msg), nil

	case manualResultMsg:
		return m.applyManualResult(msg), nil

	case scanResultMsg:
		return m.applyScanResult(msg), nil

	case submitSelectedMsg:
		return m.applySubmitSelected(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	switch {
	case m.dialog != nil:
		return m.updateDialog(msg)

	case m.confirm != nil:
		return m.updateConfirm(msg)

	case m.showInfo:
		if key.Matches(msg, m.keys.Close) || key.Matches(msg, m.keys.Info) {
			m.showInfo = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.NextTab):
		m.activeTab = (m.activeTab + 1) % tabCount
		m.syncFocus()
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		m.syncFocus()
		return m, nil

	case key.Matches(msg, m.keys.Info) && !m.typing():
		m.showInfo = true
		return m, nil

	case key.Matches(msg, m.keys.Quit) && !m.typing():
		return m, tea.Quit
	}

	switch m.activeTab {
	case TabTicket:
		return m.updateTicket(msg)

	case TabClaim:
		return m.updateClaim(msg)

	case TabScan:
		return m.updateScan(msg)
	}

	return m, nil
}

func (m Model) anyBusy() bool {
	return m.claimNotice.busy || m.scanNotice.busy
}

// typing reports whether the focused widget is a text input, in which
// case printable keys belong to it rather than to shortcuts.
func (m Model) typing() bool {
	switch m.activeTab {
	case TabTicket:
		return m.ticketForm.typing(m.focus[TabTicket])

	case TabClaim:
		return m.claimForm.typing(m.focus[TabClaim])

	case TabScan:
		return m.scanForm.typing(m.focus[TabScan])
	}

	return false
}

// syncFocus re-applies focus/blur to the text inputs after the focus
// index or active tab changed.
func (m *Model) syncFocus() {
	m.ticketForm.syncFocus(m.activeTab == TabTicket, m.focus[TabTicket])
	m.claimForm.syncFocus(m.activeTab == TabClaim, m.focus[TabClaim])
	m.scanForm.syncFocus(m.activeTab == TabScan, m.focus[TabScan])
}

// moveFocus shifts the focused field on the active screen, clamped to
// the screen's field count.
func (m *Model) moveFocus(delta int) {
	limit := m.fieldCount(m.activeTab)
	next := m.focus[m.activeTab] + delta
	if next < 0 || next >= limit {
		return
	}

	m.focus[m.activeTab] = next
	m.syncFocus()
}

func (m Model) fieldCount(tab Tab) int {
	switch tab {
	case TabTicket:
		return ticketFieldCount

	case TabClaim:
		return claimFieldCount

	case TabScan:
		count := scanFieldCount
		if m.scanList != nil && m.scanList.visible {
			// select-all + one row per candidate + submit action
			count += 2 + len(m.scan.Candidates())
		}
		return count
	}

	return 0
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var view strings.Builder
	view.WriteString(m.theme.Title.Render("Refund helper"))
	view.WriteString("  ")
	view.WriteString(m.renderTabs())
	view.WriteString("\n\n")

	switch {
	case m.dialog != nil:
		view.WriteString(m.viewDialog())

	case m.confirm != nil:
		view.WriteString(m.viewConfirm())

	case m.showInfo:
		view.WriteString(m.viewInfo())

	default:
		switch m.activeTab {
		case TabTicket:
			view.WriteString(m.viewTicket())

		case TabClaim:
			view.WriteString(m.viewClaim())

		case TabScan:
			view.WriteString(m.viewScan())
		}
	}

	view.WriteString("\n")
	view.WriteString(m.theme.Faint.Render("tab switch screen · ↑/↓ field · ←/→ option · enter activate · ? info · q quit"))
	return view.String()
}

func (m Model) renderTabs() string {
	labels := [tabCount]string{"Ticket", "Claim", "Auto scan"}

	parts := make([]string, tabCount)
	for tab := Tab(0); tab < tabCount; tab++ {
		style := m.theme.TabOff
		if tab == m.activeTab {
			style = m.theme.TabOn
		}

		parts[tab] = style.Render(labels[tab])
	}

	return strings.Join(parts, "  ")
}

func (m Model) renderNotice(n notice) string {
	if len(n.text) == 0 && !n.busy {
		return ""
	}

	text := n.text
	if n.busy {
		text = m.spinner.View() + " " + text
	}

	switch n.kind {
	case noticeSuccess:
		return m.theme.Success.Render(text)

	case noticeAlert:
		return m.theme.Alert.Render(text)

	default:
		return m.theme.Label.Render(text)
	}
}

func (m Model) viewInfo() string {
	lines := []string{
		m.theme.Title.Render("About"),
		"",
		m.theme.Label.Render("Register ticket holders, track your ticket's expiry, search"),
		m.theme.Label.Render("departures, and submit refund claims for delayed or cancelled"),
		m.theme.Label.Render("trains. The automated scan finds affected departures for a date"),
		m.theme.Label.Render("and submits the ones you pick."),
		"",
		m.theme.Faint.Render("esc close"),
	}

	return strings.Join(lines, "\n")
}

// requestContext is the context handed to command goroutines. The
// program context cancels on interrupt; each request additionally
// times out on its own.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
