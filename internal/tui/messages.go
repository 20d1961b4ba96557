package tui

import "github.com/evfalk/refund-helper/claims/api"

// stationChangeMsg carries the result of a departure-station change:
// the arrival-station fetch and the departures query that ran
// strictly after it, in one goroutine. Tokens detect staleness.
type stationChangeMsg struct {
	arrivalToken    uint64
	departuresToken uint64
	stations        []api.Station
	arrival         string
	times           []string
	arrivalErr      error
	departuresErr   error
}

// departuresMsg carries a departures query triggered by an arrival or
// date change.
type departuresMsg struct {
	token uint64
	times []string
	err   error
}

// warmCacheMsg signals the startup arrival-cache warm finished.
type warmCacheMsg struct{}

// manualResultMsg carries the outcome of a manual claim submission.
// body is the server's literal response text.
type manualResultMsg struct {
	body string
	err  error
}

// scanResultMsg carries the phase-one scan outcome.
type scanResultMsg struct {
	result *api.ScanResult
	err    error
}

// submitSelectedMsg carries the phase-two outcome.
type submitSelectedMsg struct {
	message string
	err     error
}
