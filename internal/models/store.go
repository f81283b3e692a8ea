package models

import (
	"fmt"
	"math"
	"strings"
)

// DefaultGeofenceRadiusMeters is the entry radius around each store.
const DefaultGeofenceRadiusMeters = 100.0

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate rejects NaN, infinite and out-of-range values.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return &ValidationError{Field: "latitude", Reason: fmt.Sprintf("%v is outside [-90, 90]", c.Latitude)}
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return &ValidationError{Field: "longitude", Reason: fmt.Sprintf("%v is outside [-180, 180]", c.Longitude)}
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// StoreLocation is a grocery store known to the registry. It is never
// mutated after registration; refreshes replace the whole set.
type StoreLocation struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Address   string  `db:"address" json:"address"`
	Latitude  float64 `db:"latitude" json:"latitude"`
	Longitude float64 `db:"longitude" json:"longitude"`
}

// Coordinate returns the store's position.
func (s StoreLocation) Coordinate() Coordinate {
	return Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Validate checks the store has an identity and a valid position.
func (s StoreLocation) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return &ValidationError{Field: "store id", Reason: "must not be empty"}
	}
	if err := s.Coordinate().Validate(); err != nil {
		return fmt.Errorf("store %s: %w", s.ID, err)
	}
	return nil
}

// GeofenceRegistration is a circular entry trigger installed for one store.
type GeofenceRegistration struct {
	StoreID       string
	Center        Coordinate
	RadiusMeters  float64
	NotifyOnEntry bool
	NotifyOnExit  bool
}

// NewGeofence builds the entry-only registration for a store.
func NewGeofence(store StoreLocation, radiusMeters float64) GeofenceRegistration {
	if radiusMeters <= 0 {
		radiusMeters = DefaultGeofenceRadiusMeters
	}
	return GeofenceRegistration{
		StoreID:       store.ID,
		Center:        store.Coordinate(),
		RadiusMeters:  radiusMeters,
		NotifyOnEntry: true,
		NotifyOnExit:  false,
	}
}

// StoreDistance pairs a store with its distance from a reference point.
type StoreDistance struct {
	Store  StoreLocation `json:"store"`
	Meters float64       `json:"meters"`
}
