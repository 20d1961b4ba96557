package api

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/evfalk/refund-helper/profile"
)

// DefaultBaseURL matches the development address of the refund
// backend.
const DefaultBaseURL = "http://localhost:5000"

type doFunc func(req *resty.Request) (*resty.Response, error)

// Client wraps the refund backend's HTTP surface. All responses are
// JSON except the manual submit endpoint, whose body is opaque text
// rendered verbatim.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	if len(baseURL) == 0 {
		baseURL = DefaultBaseURL
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseURL)

	if trace, _ := strconv.ParseBool(os.Getenv("API_TRACE")); trace {
		httpClient.SetDebug(true)
	}

	return &Client{http: httpClient}
}

func newApiRequest[T any](ctx context.Context, client *Client, body any, do doFunc) (*T, error) {
	req := client.http.NewRequest()
	req.SetContext(ctx)
	req.SetHeader("Accept", "application/json")

	// The backend is a small Flask app and is sloppy about content
	// types, so force JSON decoding rather than trusting the header
	req.ForceContentType("application/json")

	result := new(T)
	req.SetResult(result)

	if body != nil {
		req.SetHeader("Content-Type", "application/json")
		req.SetBody(body)
	}

	httpResp, err := do(req)
	switch {
	case err == nil && httpResp.IsError():
		err = &TransportError{StatusCode: httpResp.StatusCode(), Body: string(httpResp.Body())}
		fallthrough

	case err != nil:
		return nil, fmt.Errorf("send api request: %w", err)

	default:
		return result, nil
	}
}

// GetArrivalStations returns the stations reachable from the given
// departure station.
func (client *Client) GetArrivalStations(ctx context.Context, departureStation string) ([]Station, error) {
	resp, err := newApiRequest[StationsResponse](ctx, client, nil,
		func(req *resty.Request) (*resty.Response, error) {
			req.SetPathParam("station", departureStation)
			return req.Get("/api/arrival_stations/{station}")
		},
	)

	if err != nil {
		return nil, err
	}

	return resp.Stations, nil
}

// GetDepartures returns the ISO timestamps of departures for the
// station pair and date, in the server's (ascending) order. An
// unknown combination yields an empty list, not an error.
func (client *Client) GetDepartures(ctx context.Context, departureStation, arrivalStation, date string) ([]string, error) {
	resp, err := newApiRequest[[]string](ctx, client, nil,
		func(req *resty.Request) (*resty.Response, error) {
			req.SetPathParams(map[string]string{
				"departure": departureStation,
				"arrival":   arrivalStation,
				"date":      date,
			})
			return req.Get("/api/departures/{departure}/{arrival}/{date}")
		},
	)

	if err != nil {
		return nil, err
	}

	return *resp, nil
}

// SubmitClaim posts a manual refund claim: the flat form fields plus
// the customer profile. The response body is opaque text and is
// returned as-is.
func (client *Client) SubmitClaim(ctx context.Context, fields map[string]string, customer *profile.TicketHolder) (string, error) {
	body := make(map[string]any, len(fields)+1)
	for name, value := range fields {
		body[name] = value
	}
	if customer != nil {
		body["customer"] = customer
	}

	req := client.http.NewRequest()
	req.SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	req.SetBody(body)

	httpResp, err := req.Post("/api/submit")
	switch {
	case err == nil && httpResp.IsError():
		err = &TransportError{StatusCode: httpResp.StatusCode(), Body: string(httpResp.Body())}
		fallthrough

	case err != nil:
		return "", fmt.Errorf("send api request: %w", err)

	default:
		return string(httpResp.Body()), nil
	}
}

// Scan posts an automated delay/cancellation lookup and returns the
// candidate list.
func (client *Client) Scan(ctx context.Context, scanReq ScanRequest) (*ScanResult, error) {
	return newApiRequest[ScanResult](ctx, client, scanReq,
		func(req *resty.Request) (*resty.Response, error) {
			return req.Post("/api/auto_submit")
		},
	)
}

// SubmitSelected posts the user-chosen subset of scan candidates.
func (client *Client) SubmitSelected(ctx context.Context, items []ScanCandidate) (*SubmitSelectedResponse, error) {
	return newApiRequest[SubmitSelectedResponse](ctx, client, SubmitSelectedRequest{Items: items},
		func(req *resty.Request) (*resty.Response, error) {
			return req.Post("/api/submit_selected")
		},
	)
}
