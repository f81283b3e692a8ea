// Package geo provides great-circle distance helpers for store proximity.
package geo

import (
	"math"
	"sort"

	"github.com/stockup/stockup/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371008.8

// DefaultNearestCount is how many stores the nearest-stores query returns.
const DefaultNearestCount = 5

// Distance returns the haversine distance in meters between two coordinates.
func Distance(a, b models.Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within reports whether b lies inside a circle of radius meters around a.
func Within(a, b models.Coordinate, radiusMeters float64) bool {
	return Distance(a, b) <= radiusMeters
}

// Nearest returns up to n stores ordered by ascending distance from origin.
// Equal distances are ordered by store ID. A non-positive n uses
// DefaultNearestCount.
func Nearest(origin models.Coordinate, stores []models.StoreLocation, n int) []models.StoreDistance {
	if n <= 0 {
		n = DefaultNearestCount
	}

	ranked := make([]models.StoreDistance, 0, len(stores))
	for _, s := range stores {
		ranked = append(ranked, models.StoreDistance{
			Store:  s,
			Meters: Distance(origin, s.Coordinate()),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Meters != ranked[j].Meters {
			return ranked[i].Meters < ranked[j].Meters
		}
		return ranked[i].Store.ID < ranked[j].Store.ID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Offset returns the coordinate reached by moving north and east of origin by
// the given distances in meters. Accurate enough for the short distances used
// around a store.
func Offset(origin models.Coordinate, northMeters, eastMeters float64) models.Coordinate {
	dLat := northMeters / EarthRadiusMeters
	dLon := eastMeters / (EarthRadiusMeters * math.Cos(toRadians(origin.Latitude)))
	return models.Coordinate{
		Latitude:  origin.Latitude + toDegrees(dLat),
		Longitude: origin.Longitude + toDegrees(dLon),
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
