package s2cell

import (
	"github.com/golang/geo/s2"
)

// CellID returns the S2 cell id covering c. Grid coordinates here and in the
// S2 library share the same projection, so the cell centre always resolves to
// the id of the same cell.
func (c Cell) CellID() s2.CellID {
	ctr := c.Center()
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(ctr.Lat, ctr.Lng)).Parent(c.Level)
}

// Token is the compact hex form of CellID.
func (c Cell) Token() string {
	return c.CellID().ToToken()
}

// CellFromCellID converts an S2 cell id back to a Cell.
func CellFromCellID(id s2.CellID) Cell {
	ll := id.LatLng()
	return CellFromPoint(GeoPoint{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}, id.Level())
}

// CellFromToken parses an S2 token. ok is false for malformed tokens.
func CellFromToken(token string) (Cell, bool) {
	id := s2.CellIDFromToken(token)
	if !id.IsValid() {
		return Cell{}, false
	}
	return CellFromCellID(id), true
}
