package pogo

import (
	"fmt"
	"testing"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

var stockholm = s2cell.GeoPoint{Lat: 59.3293, Lng: 18.0686}

// poisIn places n pois of kind inside c, pulled from the centre towards the
// corners so none sits on an edge.
func poisIn(t *testing.T, c s2cell.Cell, prefix string, kind model.Kind, n int) []model.POI {
	t.Helper()
	ctr := c.Center()
	cs := c.Corners()
	out := make([]model.POI, 0, n)
	for k := 0; k < n; k++ {
		corner := cs[k%4]
		f := 0.15 + 0.1*float64(k/4)
		p := s2cell.GeoPoint{
			Lat: ctr.Lat + f*(corner.Lat-ctr.Lat),
			Lng: ctr.Lng + f*(corner.Lng-ctr.Lng),
		}
		if got := s2cell.CellFromPoint(p, c.Level); got != c {
			t.Fatalf("test point %+v fell in %s, not %s", p, got, c)
		}
		out = append(out, model.POI{
			GUID: fmt.Sprintf("%s-%d", prefix, k),
			Lat:  p.Lat,
			Lng:  p.Lng,
			Name: fmt.Sprintf("%s %d", prefix, k),
			Kind: kind,
		})
	}
	return out
}

// around returns a rect holding every cell with a margin of pad degrees.
func around(pad float64, cells ...s2cell.Cell) s2cell.LatLngRect {
	var pts []s2cell.GeoPoint
	for _, c := range cells {
		cs := c.Corners()
		pts = append(pts, cs[:]...)
	}
	r := s2cell.RectFromPoints(pts...)
	r.Lo.Lat -= pad
	r.Lo.Lng -= pad
	r.Hi.Lat += pad
	r.Hi.Lng += pad
	return r
}

func concat(lists ...[]model.POI) []model.POI {
	var out []model.POI
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
