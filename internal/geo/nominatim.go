package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// AddressNotFound is reported when the geocoder has no address for a point.
const AddressNotFound = "Address not found."

// ReverseGeocoder maps coordinates to a human-readable address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, c Coordinates) (string, error)
}

// NominatimClient queries an OpenStreetMap Nominatim /reverse endpoint.
type NominatimClient struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
}

// NewNominatimClient builds a client. Nominatim's usage policy requires a user agent.
func NewNominatimClient(baseURL, userAgent string, timeout time.Duration, hc *http.Client) *NominatimClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if hc == nil {
		hc = &http.Client{}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "grievance-geoapi"
	}
	return &NominatimClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		timeout:    timeout,
		httpClient: hc,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse returns the display name for c, or "" when Nominatim found nothing.
func (n *NominatimClient) Reverse(ctx context.Context, c Coordinates) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var body reverseResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode nominatim response: %w", err)
	}
	if body.Error != "" {
		return "", nil
	}
	return body.DisplayName, nil
}
