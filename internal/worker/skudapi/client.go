package skudapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

// AccessLog is one raw access record as the SKUD vendor API reports it.
type AccessLog struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	CardNumber string    `json:"card_number"`
	EventType  string    `json:"event_type"`
	EventTime  time.Time `json:"event_time"`
	RawData    string    `json:"raw_data,omitempty"`
}

// Client contract for the SKUD access-log API.
type Client interface {
	GetAccessLogs(ctx context.Context, employeeExternalID string, from, to time.Time) ([]AccessLog, error)
}

// HTTPClient calls the SKUD vendor API over HTTP. A circuit breaker keeps us
// from hammering the device backend while it is down.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	cb      *gobreaker.CircuitBreaker
}

// NewHTTPClient new HTTPClient with breaker defaults tuned for a flaky
// on-premises device backend.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	settings := gobreaker.Settings{
		Name:        "SKUD-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate exceeds 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// GetAccessLogs fetches the access records for one employee over a date range.
func (c *HTTPClient) GetAccessLogs(ctx context.Context, employeeExternalID string, from, to time.Time) ([]AccessLog, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, employeeExternalID, from, to)
	})
	if err != nil {
		return nil, err
	}
	return out.([]AccessLog), nil
}

func (c *HTTPClient) fetch(ctx context.Context, employeeExternalID string, from, to time.Time) ([]AccessLog, error) {
	params := url.Values{}
	params.Set("employee_id", employeeExternalID)
	params.Set("start_date", from.Format("2006-01-02"))
	params.Set("end_date", to.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/access-logs?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create skud api request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call skud api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("skud api returned non-successful status code: %d", resp.StatusCode)
	}

	var envelope struct {
		Data []AccessLog `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode skud api response: %w", err)
	}
	return envelope.Data, nil
}
