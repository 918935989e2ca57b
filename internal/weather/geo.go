package weather

import (
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371008.8

// OffsetMeters returns the great-circle distance between the catalog position
// of the city and the position reported by the weather source.
func (o Observation) OffsetMeters() float64 {
	catalog := s2.LatLngFromDegrees(o.City.Lat, o.City.Lon)
	reported := s2.LatLngFromDegrees(o.Lat, o.Lon)
	return catalog.Distance(reported).Radians() * earthRadiusMeters
}
