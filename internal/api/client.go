package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// Query identifies the location and calculation settings of a request.
// City takes precedence over coordinates when set.
type Query struct {
	Latitude  float64
	Longitude float64
	City      string
	Country   string
	// Method and School use -1 for "let the provider decide".
	Method int
	School int
}

// ByCity reports whether the query resolves its location by name.
func (q Query) ByCity() bool {
	return q.City != ""
}

// Client talks to the Al Adhan API, which computes prayer times and the
// qibla bearing for us.
type Client struct {
	httpClient *http.Client
	// BaseURL is exported so tests can point it at httptest.
	BaseURL string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    defaultBaseURL,
	}
}

// FetchDay fetches the timings of a single calendar day.
func (c *Client) FetchDay(ctx context.Context, date time.Time, q Query) (*Response, error) {
	dateStr := date.Format("02-01-2006")

	params := url.Values{}
	var endpoint string
	if q.ByCity() {
		endpoint = fmt.Sprintf("%s/timingsByCity/%s", c.BaseURL, dateStr)
		params.Set("city", q.City)
		params.Set("country", q.Country)
	} else {
		endpoint = fmt.Sprintf("%s/timings/%s", c.BaseURL, dateStr)
		params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', 6, 64))
		params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', 6, 64))
	}
	if q.Method >= 0 {
		params.Set("method", strconv.Itoa(q.Method))
	}
	if q.School >= 0 {
		params.Set("school", strconv.Itoa(q.School))
	}

	var resp Response
	if err := c.get(ctx, endpoint+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("API error: code=%d status=%s", resp.Code, resp.Status)
	}
	return &resp, nil
}

// FetchQibla returns the qibla bearing in degrees clockwise from true north.
func (c *Client) FetchQibla(ctx context.Context, lat, lon float64) (float64, error) {
	endpoint := fmt.Sprintf("%s/qibla/%s/%s", c.BaseURL,
		strconv.FormatFloat(lat, 'f', 6, 64),
		strconv.FormatFloat(lon, 'f', 6, 64))

	var resp QiblaResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return 0, err
	}
	if resp.Code != http.StatusOK {
		return 0, fmt.Errorf("API error: code=%d status=%s", resp.Code, resp.Status)
	}
	return resp.Data.Direction, nil
}

func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}
