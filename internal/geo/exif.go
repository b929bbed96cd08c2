// Package geo extracts GPS coordinates from photo EXIF data and reverse-geocodes them.
package geo

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoGPS is returned when an image carries no usable GPS tags.
var ErrNoGPS = errors.New("GPS data not found in image.")

// Coordinates are decimal degrees; south and west are negative.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ExtractGPS reads the GPS latitude and longitude tags from an image's EXIF block.
func ExtractGPS(r io.Reader) (Coordinates, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w (%v)", ErrNoGPS, err)
	}

	lat, err := readCoordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	if err != nil {
		return Coordinates{}, err
	}
	lon, err := readCoordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

func readCoordinate(x *exif.Exif, valueField, refField exif.FieldName) (float64, error) {
	tag, err := x.Get(valueField)
	if err != nil {
		return 0, ErrNoGPS
	}
	if tag.Count < 3 {
		return 0, fmt.Errorf("%w (short %s)", ErrNoGPS, valueField)
	}

	var parts [3]float64
	for i := range parts {
		v, err := rational(tag, i)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", valueField, err)
		}
		parts[i] = v
	}

	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		ref, _ = refTag.StringVal()
	}
	return DMSToDecimal(parts[0], parts[1], parts[2], ref), nil
}

func rational(tag *tiff.Tag, i int) (float64, error) {
	num, den, err := tag.Rat2(i)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, errors.New("zero denominator")
	}
	return float64(num) / float64(den), nil
}

// DMSToDecimal converts degrees/minutes/seconds to decimal degrees.
// A reference of S or W makes the result negative.
func DMSToDecimal(degrees, minutes, seconds float64, ref string) float64 {
	decimal := degrees + minutes/60.0 + seconds/3600.0
	switch strings.ToUpper(strings.TrimSpace(strings.Trim(ref, "\x00"))) {
	case "S", "W":
		return -decimal
	default:
		return decimal
	}
}
