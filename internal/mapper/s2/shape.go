package s2mapper

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

// toPolygon builds an s2 polygon from GeoJSON rings [[lon,lat], ...]. The
// first ring is the shell, the rest are holes. Ring orientation is not
// trusted: every loop is normalised to enclose its smaller side.
func toPolygon(rings [][][]float64) (*s2.Polygon, error) {
	if len(rings) == 0 {
		return nil, errors.New("empty polygon")
	}
	loops := make([]*s2.Loop, 0, len(rings))
	for i, ring := range rings {
		pts := toRing(ring)
		if len(pts) < 3 {
			if i == 0 {
				return nil, errors.New("outer ring has < 4 vertices")
			}
			return nil, fmt.Errorf("hole %d has < 4 vertices", i-1)
		}
		l := s2.LoopFromPoints(pts)
		if err := l.Validate(); err != nil {
			if i == 0 {
				return nil, fmt.Errorf("outer ring: %w", err)
			}
			return nil, fmt.Errorf("hole %d: %w", i-1, err)
		}
		l.Normalize()
		loops = append(loops, l)
	}
	return s2.PolygonFromLoops(loops), nil
}

// toRing converts one ring to sphere points. A duplicated closing vertex and
// repeated consecutive vertices are dropped.
func toRing(coords [][]float64) []s2.Point {
	ring := make([]s2.Point, 0, len(coords))
	var prev s2.LatLng
	for _, xy := range coords {
		if len(xy) != 2 {
			continue
		}
		ll := s2.LatLngFromDegrees(xy[1], xy[0])
		if len(ring) > 0 && ll == prev {
			continue
		}
		prev = ll
		ring = append(ring, s2.PointFromLatLng(ll))
	}
	if len(ring) >= 2 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	return ring
}

// toRect converts a lat/lng box. Lo.Lng above Hi.Lng would wrap, so callers
// pass boxes with Lo.Lng <= Hi.Lng.
func toRect(r s2cell.LatLngRect) s2.Rect {
	rad := func(deg float64) float64 { return (s1.Angle(deg) * s1.Degree).Radians() }
	return s2.Rect{
		Lat: r1.Interval{Lo: rad(r.Lo.Lat), Hi: rad(r.Hi.Lat)},
		Lng: s1.IntervalFromEndpoints(rad(r.Lo.Lng), rad(r.Hi.Lng)),
	}
}

// tooLarge reports whether covering poly at level needs more than limit
// cells. Both estimates are lower bounds: no cell is larger than the max
// area metric and no edge crosses a cell for more than its diagonal.
func tooLarge(poly *s2.Polygon, level, limit int) bool {
	if poly.Area()/s2.MaxAreaMetric.Value(level) > float64(limit) {
		return true
	}
	var perimeter s1.Angle
	for _, l := range poly.Loops() {
		n := l.NumVertices()
		for i := 0; i < n; i++ {
			perimeter += l.Vertex(i).Distance(l.Vertex(i + 1))
		}
	}
	return perimeter.Radians()/s2.MaxDiagMetric.Value(level) > float64(limit)
}

// coverPolygon returns every cell at level that intersects poly.
func (m *Mapper) coverPolygon(poly *s2.Polygon, level int) ([]s2cell.Cell, error) {
	limit := m.limit()
	if tooLarge(poly, level, limit) {
		return nil, fmt.Errorf("%w: more than %d cells at level %d", ErrTooManyCells, limit, level)
	}
	rc := &s2.RegionCoverer{MinLevel: level, MaxLevel: level, LevelMod: 1, MaxCells: limit}
	ids := rc.Covering(poly)
	if len(ids) > limit {
		return nil, fmt.Errorf("%w: more than %d cells at level %d", ErrTooManyCells, limit, level)
	}
	out := make([]s2cell.Cell, len(ids))
	for i, id := range ids {
		out[i] = s2cell.CellFromCellID(id)
	}
	return out, nil
}
