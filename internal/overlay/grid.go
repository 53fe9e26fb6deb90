package overlay

import (
	"context"
	"errors"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/config"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	obs "github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
	s2mapper "github.com/mohammed-shakir/pogo-s2-overlay/internal/mapper/s2"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/pogo"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

type Geometry struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// CellPolygon is the closed lng/lat ring of c's corners.
func CellPolygon(c s2cell.Cell) Geometry {
	cs := c.Corners()
	ring := make([][]float64, 0, 5)
	for _, p := range cs {
		ring = append(ring, []float64{p.Lng, p.Lat})
	}
	ring = append(ring, []float64{cs[0].Lng, cs[0].Lat})
	return Geometry{Type: "Polygon", Coordinates: [][][]float64{ring}}
}

func (s *Service) gridStyle(level int) config.Grid {
	for _, g := range s.settings.Grids {
		if g.Level == level {
			return g
		}
	}
	return config.Grid{Level: level, Width: 1, Color: "#004D40", Opacity: 0.5}
}

func fill(props map[string]any, st config.Style) {
	props["fill"] = st.Color
	props["fillOpacity"] = st.Opacity
}

// Grid draws the cells of level touching bb. Gym cells carry their analysis
// and poi cells are filled when a gym or stop sits in them.
func (s *Service) Grid(ctx context.Context, bb model.BBox, level int) (FeatureCollection, error) {
	cells, err := s.mapper.CoverRect(bb.Rect(), level)
	if err != nil {
		if errors.Is(err, s2mapper.ErrTooManyCells) || !s2cell.ValidLevel(level) {
			return FeatureCollection{}, invalid(err)
		}
		return FeatureCollection{}, err
	}

	style := s.gridStyle(level)
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(cells))}
	byKey := make(map[string]int, len(cells))
	for _, c := range cells {
		key := c.String()
		byKey[key] = len(fc.Features)
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			ID:       key,
			Geometry: CellPolygon(c),
			Properties: map[string]any{
				"key":           key,
				"level":         c.Level,
				"stroke":        style.Color,
				"strokeWidth":   style.Width,
				"strokeOpacity": style.Opacity,
			},
		})
	}

	lv := s.analyzer.Levels
	switch {
	case level == lv.GymCell && s.settings.AnalyzeForMissingData:
		a, err := s.Analyze(ctx, bb)
		if err != nil {
			return FeatureCollection{}, err
		}
		for _, r := range a.Reports {
			i, ok := byKey[r.Key]
			if !ok {
				continue
			}
			s.decorateGymCell(fc.Features[i].Properties, r)
		}
	case level == lv.PoiCell:
		pois, err := s.store.InBounds(ctx, bb)
		if err != nil {
			return FeatureCollection{}, err
		}
		for _, p := range pois {
			if p.Kind != model.KindGym && p.Kind != model.KindPokestop {
				continue
			}
			if i, ok := byKey[p.Cell(level).String()]; ok {
				fill(fc.Features[i].Properties, s.settings.Colors.Cell17Filled)
			}
		}
	}

	obs.AddCellsRendered("grid", len(fc.Features))
	return fc, nil
}

func (s *Service) decorateGymCell(props map[string]any, r pogo.CellReport) {
	colors := s.settings.Colors
	props["gyms"] = r.Gyms
	props["stops"] = r.Stops
	props["missingGyms"] = r.MissingGyms
	props["missingStops"] = r.MissingStops
	props["label"] = r.Label()
	props["status"] = r.Status
	if r.Ignored {
		props["ignored"] = true
	}

	bucket, isBucket := colors.MissingStops(r.MissingStops)
	switch {
	case r.Status == pogo.StatusExtraGyms && !r.Ignored:
		fill(props, colors.CellsExtraGyms)
	case r.Status == pogo.StatusMissingGyms && !r.Ignored:
		fill(props, colors.CellsMissingGyms)
	case s.settings.HighlightGymCandidateCells && isBucket:
		fill(props, bucket)
	case r.Filled:
		fill(props, colors.Cell14Filled)
	}
}
