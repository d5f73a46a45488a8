package domain

import (
	"fmt"
	"math"
)

// SelectedLocation is the operator's current pick on the map. It only lives as
// long as the picker session that holds it.
type SelectedLocation struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address"`
	Title        string  `json:"title,omitempty"`
	Landmark     string  `json:"landmark,omitempty"`
	DeliveryNote string  `json:"deliveryNote,omitempty"`
}

// ValidateCoordinates rejects points outside the WGS84 ranges.
func ValidateCoordinates(lat, lng float64) error {
	if !isFinite(lat) || !isFinite(lng) {
		return fmt.Errorf("coordinates must be finite numbers: %w", ErrInvalidInput)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]: %w", lat, ErrInvalidInput)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]: %w", lng, ErrInvalidInput)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
