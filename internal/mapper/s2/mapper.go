package s2mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/golang/geo/s2"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

const DefaultMaxCells = 20000

var ErrTooManyCells = errors.New("cell coverage exceeds limit")

type Mapper struct {
	MaxCells int
}

func New() *Mapper { return &Mapper{MaxCells: DefaultMaxCells} }

func NewWithLimit(maxCells int) *Mapper {
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	return &Mapper{MaxCells: maxCells}
}

func (m *Mapper) CellsForBBox(bb model.BBox, level int) (model.Cells, error) {
	cells, err := m.CoverRect(bb.Rect(), level)
	if err != nil {
		return nil, err
	}
	return keysOf(cells), nil
}

// CoverRect walks outwards from the cell at the centre of r through edge
// neighbours, keeping every cell that intersects r. The centre cell is always
// kept, so a rect smaller than one cell still maps to it.
func (m *Mapper) CoverRect(r s2cell.LatLngRect, level int) ([]s2cell.Cell, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}
	region := toRect(r)
	start := s2cell.CellFromPoint(r.Center(), level)
	return m.flood([]s2cell.Cell{start}, func(c s2cell.Cell) bool {
		return c == start || region.IntersectsCell(s2.CellFromCellID(c.CellID()))
	})
}

func (m *Mapper) CellsForPolygon(poly model.Polygon, level int) (model.Cells, error) {
	if err := validateLevel(level); err != nil {
		return nil, err
	}

	var hdr struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(poly.GeoJSON), &hdr); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	var polys [][][][]float64
	switch hdr.Type {
	case "Polygon":
		var tmp struct {
			Coordinates [][][]float64 `json:"coordinates"` // [ring][i][lon,lat]
		}
		if err := json.Unmarshal([]byte(poly.GeoJSON), &tmp); err != nil {
			return nil, fmt.Errorf("parse polygon coords: %w", err)
		}
		if len(tmp.Coordinates) == 0 {
			return nil, errors.New("empty polygon")
		}
		polys = [][][][]float64{tmp.Coordinates}
	case "MultiPolygon":
		var tmp struct {
			Coordinates [][][][]float64 `json:"coordinates"` // [poly][ring][i][lon,lat]
		}
		if err := json.Unmarshal([]byte(poly.GeoJSON), &tmp); err != nil {
			return nil, fmt.Errorf("parse multipolygon coords: %w", err)
		}
		if len(tmp.Coordinates) == 0 {
			return nil, errors.New("empty multipolygon")
		}
		polys = tmp.Coordinates
	default:
		return nil, fmt.Errorf("unsupported GeoJSON type: %s", hdr.Type)
	}

	seen := make(map[string]struct{})
	var out []string
	for pi, rings := range polys {
		poly, err := toPolygon(rings)
		if err != nil {
			if len(polys) > 1 {
				return nil, fmt.Errorf("polygon %d: %w", pi, err)
			}
			return nil, err
		}
		cells, err := m.coverPolygon(poly, level)
		if err != nil {
			return nil, err
		}
		for _, c := range cells {
			k := c.String()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- helpers ---

func validateLevel(level int) error {
	if !s2cell.ValidLevel(level) {
		return fmt.Errorf("invalid cell level %d (must be 0..%d)", level, s2cell.MaxLevel)
	}
	return nil
}

func (m *Mapper) limit() int {
	if m.MaxCells <= 0 {
		return DefaultMaxCells
	}
	return m.MaxCells
}

// flood is a breadth-first walk over default neighbours. Cells failing keep
// are not expanded.
func (m *Mapper) flood(start []s2cell.Cell, keep func(s2cell.Cell) bool) ([]s2cell.Cell, error) {
	limit := m.limit()
	seen := make(map[s2cell.Cell]struct{}, len(start))
	queue := append([]s2cell.Cell(nil), start...)
	for _, c := range start {
		seen[c] = struct{}{}
	}
	var out []s2cell.Cell
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if !keep(c) {
			continue
		}
		out = append(out, c)
		if len(out) > limit {
			return nil, fmt.Errorf("%w: more than %d cells at level %d", ErrTooManyCells, limit, c.Level)
		}
		for _, n := range c.Neighbors() {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			queue = append(queue, n)
		}
	}
	return out, nil
}

func keysOf(cells []s2cell.Cell) model.Cells {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.String())
	}
	sort.Strings(out)
	return out
}
