package api

import (
	"fmt"

	"github.com/evfalk/refund-helper/profile"
)

// Station is one arrival-station entry: the short code used on the
// wire plus the display name.
type Station struct {
	Name     string `json:"name"`
	LongName string `json:"longname"`
}

type StationsResponse struct {
	Stations []Station `json:"stations"`
}

// ScanCandidate is one delayed or cancelled departure returned by the
// automated scan. Candidates are held in server order and referenced
// by position when a subset is submitted.
type ScanCandidate struct {
	Ticket        string `json:"ticket"`
	From          string `json:"from"`
	To            string `json:"to"`
	DepartureTime string `json:"departureTime"`
	DepartureDate string `json:"departureDate"`
	Status        string `json:"status"`
}

func (candidate ScanCandidate) Summary() string {
	return fmt.Sprintf("Train %s from %s to %s scheduled at %s %s was %s",
		candidate.Ticket, candidate.From, candidate.To,
		candidate.DepartureTime, candidate.DepartureDate, candidate.Status)
}

type ScanStatus string

const ScanStatusSuccess ScanStatus = "success"

type ScanRequest struct {
	StartTime string                `json:"startTime"`
	Date      string                `json:"date"`
	APIKey    string                `json:"tv_api_key"`
	Customer  *profile.TicketHolder `json:"customer,omitempty"`
}

type ScanResult struct {
	Status  ScanStatus      `json:"status"`
	Found   int             `json:"found"`
	Message string          `json:"message,omitempty"`
	Items   []ScanCandidate `json:"items"`
}

type SubmitSelectedRequest struct {
	Items []ScanCandidate `json:"items"`
}

type SubmitSelectedResponse struct {
	Message string `json:"message"`
}

// TransportError is a non-2xx response from the backend, carrying the
// raw body so callers can decide whether to surface or discard it.
type TransportError struct {
	StatusCode int
	Body       string
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("api error %d: %s", err.StatusCode, err.Body)
}
