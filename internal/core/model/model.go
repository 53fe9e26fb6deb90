// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"strings"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

type BBox struct {
	X1, Y1 float64
	X2, Y2 float64
	SRID   string
}

// String representation matching the bbox query parameter
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%s", b.X1, b.Y1, b.X2, b.Y2, b.SRID)
}

// Rect converts the lng/lat ordered bbox to a lat/lng rect.
func (b BBox) Rect() s2cell.LatLngRect {
	return s2cell.LatLngRect{
		Lo: s2cell.GeoPoint{Lat: b.Y1, Lng: b.X1},
		Hi: s2cell.GeoPoint{Lat: b.Y2, Lng: b.X2},
	}
}

func BBoxFromRect(r s2cell.LatLngRect) BBox {
	return BBox{X1: r.Lo.Lng, Y1: r.Lo.Lat, X2: r.Hi.Lng, Y2: r.Hi.Lat, SRID: "EPSG:4326"}
}

type Polygon struct {
	GeoJSON string
}

// Cells is a sorted list of canonical cell keys.
type Cells []string

// Kind classifies a portal for the game.
type Kind string

const (
	KindGym      Kind = "gym"
	KindPokestop Kind = "pokestop"
	KindNotPogo  Kind = "notpogo"
	// KindNew is a portal seen on the map but not classified yet.
	KindNew Kind = "new"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGym, KindPokestop, KindNotPogo, KindNew:
		return k, nil
	case "gyms":
		return KindGym, nil
	case "pokestops", "stop", "stops":
		return KindPokestop, nil
	default:
		return "", fmt.Errorf("unknown poi kind %q", s)
	}
}

// POI is a portal with its game classification.
type POI struct {
	GUID  string  `json:"guid"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Name  string  `json:"name,omitempty"`
	Kind  Kind    `json:"kind"`
	IsEx  bool    `json:"isEx,omitempty"`
	Medal string  `json:"medal,omitempty"`
	Image string  `json:"image,omitempty"`
}

func (p POI) Point() s2cell.GeoPoint {
	return s2cell.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

// Cell returns the cell holding the POI at level.
func (p POI) Cell(level int) s2cell.Cell {
	return s2cell.CellFromPoint(p.Point(), level)
}

func (p POI) Validate() error {
	if strings.TrimSpace(p.GUID) == "" {
		return fmt.Errorf("guid is required")
	}
	if !p.Point().IsFinite() {
		return fmt.Errorf("poi %s: coordinates must be finite", p.GUID)
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("poi %s: coordinates out of range", p.GUID)
	}
	if _, err := ParseKind(string(p.Kind)); err != nil {
		return fmt.Errorf("poi %s: %w", p.GUID, err)
	}
	return nil
}

// IgnoreKind names the two lists of cells whose gym warnings were dismissed.
type IgnoreKind string

const (
	IgnoreExtraGyms   IgnoreKind = "extra"
	IgnoreMissingGyms IgnoreKind = "missing"
)

func ParseIgnoreKind(s string) (IgnoreKind, error) {
	switch k := IgnoreKind(strings.ToLower(strings.TrimSpace(s))); k {
	case IgnoreExtraGyms, IgnoreMissingGyms:
		return k, nil
	default:
		return "", fmt.Errorf("unknown ignore kind %q (must be extra or missing)", s)
	}
}
