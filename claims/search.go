package claims

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/evfalk/refund-helper/claims/api"
)

// DepartureStations is the fixed set of stations a search can start
// from. Arrival options depend on the chosen departure station and
// come from the backend.
var DepartureStations = []api.Station{
	{Name: "U", LongName: "Uppsala C"},
	{Name: "Cst", LongName: "Stockholm C"},
	{Name: "Srv", LongName: "Storvreta"},
	{Name: "Kn", LongName: "Knivsta"},
	{Name: "Mr", LongName: "Märsta"},
}

// SearchFlow drives the dependent departure search: departure station
// determines the arrival options, and (departure, arrival, date)
// determine the departure-time list.
//
// Fetches run outside the UI loop, so every query is issued with a
// monotonically increasing token per field and the Apply methods
// discard results whose token is no longer the latest. A slow old
// response can then never overwrite a newer one.
type SearchFlow struct {
	client *api.Client
	logger zerolog.Logger

	DepartureStation string
	ArrivalStation   string
	Date             string

	ArrivalOptions []api.Station
	DepartureTimes []string
	SelectedTime   string

	arrivalToken    uint64
	departuresToken uint64

	cacheLock    sync.Mutex
	arrivalCache map[string][]api.Station
}

func NewSearchFlow(client *api.Client, logger zerolog.Logger) *SearchFlow {
	return &SearchFlow{
		client:       client,
		logger:       logger,
		arrivalCache: make(map[string][]api.Station),
	}
}

// SelectDepartureStation records the new departure station and issues
// a token for the arrival-station fetch that must follow.
func (flow *SearchFlow) SelectDepartureStation(station string) uint64 {
	flow.DepartureStation = station
	flow.arrivalToken++
	return flow.arrivalToken
}

// SelectArrivalStation records the new arrival station and issues a
// token for the departures fetch that must follow.
func (flow *SearchFlow) SelectArrivalStation(station string) uint64 {
	flow.ArrivalStation = station
	return flow.NextDeparturesQuery()
}

// SelectDate records the new travel date and issues a token for the
// departures fetch that must follow.
func (flow *SearchFlow) SelectDate(date string) uint64 {
	flow.Date = date
	return flow.NextDeparturesQuery()
}

// NextDeparturesQuery issues a token for a departures fetch without
// changing any selection.
func (flow *SearchFlow) NextDeparturesQuery() uint64 {
	flow.departuresToken++
	return flow.departuresToken
}

// LookupArrivalStations fetches the arrival options for a departure
// station, via the warm cache when possible. Safe to call from a
// fetch goroutine.
func (flow *SearchFlow) LookupArrivalStations(ctx context.Context, station string) ([]api.Station, error) {
	flow.cacheLock.Lock()
	cached, found := flow.arrivalCache[station]
	flow.cacheLock.Unlock()

	if found {
		return cached, nil
	}

	stations, err := flow.client.GetArrivalStations(ctx, station)
	if err != nil {
		return nil, err
	}

	flow.cacheLock.Lock()
	flow.arrivalCache[station] = stations
	flow.cacheLock.Unlock()

	return stations, nil
}

// WarmArrivalCache pre-fetches arrival options for the given
// departure stations. Best effort: the flow works identically on a
// cold cache, just with one extra round-trip per station change.
func (flow *SearchFlow) WarmArrivalCache(ctx context.Context, stations []api.Station) error {
	group, gCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, station := range stations {
		station := station
		group.Go(func() error {
			if _, err := flow.LookupArrivalStations(gCtx, station.Name); err != nil {
				flow.logger.Debug().Err(err).Str("station", station.Name).Msg("Failed to warm arrival station cache")
			}
			return nil
		})
	}

	return group.Wait()
}

// ApplyArrivalStations installs a fetched arrival-option list. Stale
// tokens are discarded. The selection resets to the first option,
// matching a freshly repopulated picker.
func (flow *SearchFlow) ApplyArrivalStations(token uint64, stations []api.Station) bool {
	if token != flow.arrivalToken {
		flow.logger.Debug().Uint64("token", token).Msg("Discarding stale arrival station response")
		return false
	}

	flow.ArrivalOptions = stations

	flow.ArrivalStation = ""
	if len(stations) > 0 {
		flow.ArrivalStation = stations[0].Name
	}

	return true
}

// FetchDepartures runs the departures query for an explicit station
// pair and date, captured at issue time. Safe to call from a fetch
// goroutine.
func (flow *SearchFlow) FetchDepartures(ctx context.Context, departure, arrival, date string) ([]string, error) {
	return flow.client.GetDepartures(ctx, departure, arrival, date)
}

// ApplyDepartures installs a fetched departure list, reducing each
// timestamp to its time-of-day part and defaulting the selection to
// the last (latest) entry. Stale tokens are discarded.
func (flow *SearchFlow) ApplyDepartures(token uint64, timestamps []string) bool {
	if token != flow.departuresToken {
		flow.logger.Debug().Uint64("token", token).Msg("Discarding stale departures response")
		return false
	}

	times := make([]string, len(timestamps))
	for i, timestamp := range timestamps {
		times[i] = timeOfDay(timestamp)
	}

	flow.DepartureTimes = times
	flow.SelectedTime = ""
	if len(times) > 0 {
		flow.SelectedTime = times[len(times)-1]
	}

	return true
}

// KeepDepartures marks a failed departures fetch as handled: the
// previous list stays in place.
func (flow *SearchFlow) KeepDepartures(err error) {
	flow.logger.Error().Err(err).
		Str("departure", flow.DepartureStation).
		Str("arrival", flow.ArrivalStation).
		Str("date", flow.Date).
		Msg("Departures query failed, keeping previous list")
}

func timeOfDay(timestamp string) string {
	if _, after, found := strings.Cut(timestamp, "T"); found {
		return after
	}

	return timestamp
}
