package geo

import (
	"context"
	"io"
)

// Result is the JSON document printed by the geolocate command.
type Result struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Locate extracts GPS from the image and resolves it to an address.
// Failures are reported in Result.Error rather than returned.
func Locate(ctx context.Context, image io.Reader, geocoder ReverseGeocoder) Result {
	coords, err := ExtractGPS(image)
	if err != nil {
		return Result{Error: ErrNoGPS.Error()}
	}

	address, err := geocoder.Reverse(ctx, coords)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if address == "" {
		address = AddressNotFound
	}
	return Result{
		Latitude:  &coords.Latitude,
		Longitude: &coords.Longitude,
		Address:   address,
	}
}
