package s2cell

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// Cell addresses one grid cell by face, integer grid coordinates and level.
// It is a comparable value; String gives the canonical key callers index by.
type Cell struct {
	Face  Face `json:"face"`
	I     int  `json:"i"`
	J     int  `json:"j"`
	Level int  `json:"level"`
}

// Delta is a grid offset used for neighbour lookups.
type Delta struct {
	DI, DJ int
}

// DefaultNeighborDeltas are the four edge-adjacent offsets.
var DefaultNeighborDeltas = []Delta{
	{DI: -1, DJ: 0},
	{DI: 0, DJ: -1},
	{DI: 1, DJ: 0},
	{DI: 0, DJ: 1},
}

// corner offsets in rendering order
var cornerOffsets = [4][2]float64{
	{0, 0},
	{0, 1},
	{1, 1},
	{1, 0},
}

// CellFromFaceIJ builds a cell without any range checks.
func CellFromFaceIJ(face Face, i, j, level int) Cell {
	return Cell{Face: face, I: i, J: j, Level: level}
}

// CellFromPoint returns the cell containing p at level.
func CellFromPoint(p GeoPoint, level int) Cell {
	st := VectorToFaceUV(PointToVector(p)).ST()
	return Cell{
		Face:  st.Face,
		I:     STToIJ(st.S, level),
		J:     STToIJ(st.T, level),
		Level: level,
	}
}

// String renders the canonical key, e.g. "F2ij[2944,6179]@14".
func (c Cell) String() string {
	return fmt.Sprintf("F%dij[%d,%d]@%d", int(c.Face), c.I, c.J, c.Level)
}

func (c Cell) Key() string { return c.String() }

// ParseCell parses a canonical key produced by Cell.String.
func ParseCell(key string) (Cell, error) {
	var face, i, j, level int
	if _, err := fmt.Sscanf(key, "F%dij[%d,%d]@%d", &face, &i, &j, &level); err != nil {
		return Cell{}, fmt.Errorf("parse cell key %q: %w", key, err)
	}
	c := Cell{Face: Face(face), I: i, J: j, Level: level}
	if c.String() != key {
		return Cell{}, fmt.Errorf("cell key %q is not canonical", key)
	}
	if !c.Valid() {
		return Cell{}, fmt.Errorf("cell key %q out of range", key)
	}
	return c, nil
}

// Valid reports whether the face, level and grid coordinates are in range.
func (c Cell) Valid() bool {
	if !c.Face.Valid() || !ValidLevel(c.Level) {
		return false
	}
	size := gridSize(c.Level)
	return c.I >= 0 && c.J >= 0 && c.I < size && c.J < size
}

func (c Cell) pointAt(di, dj float64) GeoPoint {
	u := STToUV(IJToST(c.I, c.Level, di))
	v := STToUV(IJToST(c.J, c.Level, dj))
	return VectorToPoint(FaceUVToVector(c.Face, u, v))
}

// Center returns the point at the middle of the cell in st space.
func (c Cell) Center() GeoPoint {
	return c.pointAt(0.5, 0.5)
}

// Corners returns the four corners in a fixed winding: (0,0), (0,1), (1,1),
// (1,0) in (i,j) offsets.
func (c Cell) Corners() [4]GeoPoint {
	var out [4]GeoPoint
	for k, o := range cornerOffsets {
		out[k] = c.pointAt(o[0], o[1])
	}
	return out
}

// Bounds is a lat/lng box holding the whole cell, including the parts of its
// edges that bow outside the corners. Cells that cross the antimeridian or
// hold a pole span every longitude.
func (c Cell) Bounds() LatLngRect {
	rb := s2.CellFromCellID(c.CellID()).RectBound()
	lo, hi := rb.Lo(), rb.Hi()
	r := LatLngRect{
		Lo: GeoPoint{Lat: math.Max(lo.Lat.Degrees(), -90), Lng: lo.Lng.Degrees()},
		Hi: GeoPoint{Lat: math.Min(hi.Lat.Degrees(), 90), Lng: hi.Lng.Degrees()},
	}
	if rb.Lng.IsInverted() || rb.Lng.IsFull() {
		r.Lo.Lng, r.Hi.Lng = -180, 180
	}
	return r
}

// CornerBounds is the lat/lng box of the four corners only. It can be
// smaller than the cell; use it to ask whether a cell is drawn inside a view.
func (c Cell) CornerBounds() LatLngRect {
	cs := c.Corners()
	return RectFromPoints(cs[:]...)
}

// Parent returns the enclosing cell one level up. A level 0 cell is its own
// parent.
func (c Cell) Parent() Cell {
	return c.ParentAt(c.Level - 1)
}

// ParentAt returns the enclosing cell at level. Levels at or below zero give
// the face cell, levels at or above c.Level give c.
func (c Cell) ParentAt(level int) Cell {
	if level >= c.Level {
		return c
	}
	if level < 0 {
		level = 0
	}
	shift := c.Level - level
	return Cell{Face: c.Face, I: c.I >> shift, J: c.J >> shift, Level: level}
}

// Children returns the four cells one level down.
func (c Cell) Children() [4]Cell {
	var out [4]Cell
	k := 0
	for di := 0; di < 2; di++ {
		for dj := 0; dj < 2; dj++ {
			out[k] = Cell{Face: c.Face, I: c.I<<1 | di, J: c.J<<1 | dj, Level: c.Level + 1}
			k++
		}
	}
	return out
}

// Neighbors returns the same-level cells at each delta, or at the four
// edge-adjacent offsets when none are given. Offsets must stay within one
// step of the face; larger jumps across a cube edge are not meaningful.
func (c Cell) Neighbors(deltas ...Delta) []Cell {
	if len(deltas) == 0 {
		deltas = DefaultNeighborDeltas
	}
	out := make([]Cell, len(deltas))
	for k, d := range deltas {
		out[k] = wrapFaceIJ(c.Face, c.I+d.DI, c.J+d.DJ, c.Level)
	}
	return out
}

// wrapFaceIJ normalises (face,i,j) that may sit one step past a face edge.
// The out-of-range centre is pushed through the original face's inverse
// projection and re-projected, which lands it on the adjacent face.
func wrapFaceIJ(face Face, i, j, level int) Cell {
	size := gridSize(level)
	if i >= 0 && j >= 0 && i < size && j < size {
		return Cell{Face: face, I: i, J: j, Level: level}
	}
	u := STToUV(IJToST(i, level, 0.5))
	v := STToUV(IJToST(j, level, 0.5))
	st := VectorToFaceUV(FaceUVToVector(face, u, v)).ST()
	return Cell{
		Face:  st.Face,
		I:     STToIJ(st.S, level),
		J:     STToIJ(st.T, level),
		Level: level,
	}
}
