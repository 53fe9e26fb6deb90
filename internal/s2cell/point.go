// Package s2cell maps latitude/longitude coordinates onto the hierarchical
// cube-sphere grid used by Pokémon Go, and derives cell corners, centres and
// same-level neighbours.
//
// Every function in this package is a pure transform: no I/O, no shared
// state, safe to call from any number of goroutines.
package s2cell

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// GeoPoint is a latitude/longitude pair in degrees. Wrapping of out-of-range
// values is the caller's responsibility.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsFinite reports whether both coordinates are finite numbers.
func (p GeoPoint) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

// PointToVector converts p to a unit vector on the sphere.
func PointToVector(p GeoPoint) r3.Vector {
	phi := (s1.Angle(p.Lat) * s1.Degree).Radians()
	theta := (s1.Angle(p.Lng) * s1.Degree).Radians()
	cosphi := math.Cos(phi)
	return r3.Vector{
		X: math.Cos(theta) * cosphi,
		Y: math.Sin(theta) * cosphi,
		Z: math.Sin(phi),
	}
}

// VectorToPoint is the inverse of PointToVector. The vector does not need
// to be normalised.
func VectorToPoint(v r3.Vector) GeoPoint {
	lat := s1.Angle(math.Atan2(v.Z, math.Sqrt(v.X*v.X+v.Y*v.Y)))
	lng := s1.Angle(math.Atan2(v.Y, v.X))
	return GeoPoint{Lat: lat.Degrees(), Lng: lng.Degrees()}
}

// LatLngRect is an axis-aligned latitude/longitude box.
type LatLngRect struct {
	Lo GeoPoint `json:"lo"`
	Hi GeoPoint `json:"hi"`
}

// RectFromPoints returns the smallest rect holding every point.
func RectFromPoints(pts ...GeoPoint) LatLngRect {
	if len(pts) == 0 {
		return LatLngRect{}
	}
	r := LatLngRect{Lo: pts[0], Hi: pts[0]}
	for _, p := range pts[1:] {
		r.Lo.Lat = math.Min(r.Lo.Lat, p.Lat)
		r.Lo.Lng = math.Min(r.Lo.Lng, p.Lng)
		r.Hi.Lat = math.Max(r.Hi.Lat, p.Lat)
		r.Hi.Lng = math.Max(r.Hi.Lng, p.Lng)
	}
	return r
}

func (r LatLngRect) Contains(p GeoPoint) bool {
	return p.Lat >= r.Lo.Lat && p.Lat <= r.Hi.Lat &&
		p.Lng >= r.Lo.Lng && p.Lng <= r.Hi.Lng
}

// ContainsRect reports whether o lies entirely inside r.
func (r LatLngRect) ContainsRect(o LatLngRect) bool {
	return r.Contains(o.Lo) && r.Contains(o.Hi)
}

func (r LatLngRect) Intersects(o LatLngRect) bool {
	return r.Lo.Lat <= o.Hi.Lat && o.Lo.Lat <= r.Hi.Lat &&
		r.Lo.Lng <= o.Hi.Lng && o.Lo.Lng <= r.Hi.Lng
}

func (r LatLngRect) Center() GeoPoint {
	return GeoPoint{
		Lat: (r.Lo.Lat + r.Hi.Lat) / 2,
		Lng: (r.Lo.Lng + r.Hi.Lng) / 2,
	}
}
