package pogo

import (
	"sort"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

// Guess is the outcome of classifying unclassified portals in a viewport.
type Guess struct {
	// NewPokestops are portals alone in their poi cell.
	NewPokestops []model.POI `json:"newPokestops"`
	// Skipped are portals sharing a poi cell with a gym or stop.
	Skipped []string `json:"skipped"`
	// NeedsClassification groups portals sharing an otherwise empty poi cell.
	NeedsClassification [][]model.POI `json:"needsClassification"`
	// CellsMissingGyms are fully classified gym cells that should hold more gyms.
	CellsMissingGyms []string `json:"cellsMissingGyms"`
}

// GuessNewStops only looks at cells that are completely inside bounds.
func (a *Analyzer) GuessNewStops(bounds s2cell.LatLngRect, pois []model.POI, ignored IgnoredCells) Guess {
	g := Guess{
		NewPokestops:        []model.POI{},
		Skipped:             []string{},
		NeedsClassification: [][]model.POI{},
		CellsMissingGyms:    []string{},
	}

	poiGroups := GroupByCell(a.Levels.PoiCell, pois)
	for _, key := range insideKeys(bounds, poiGroups) {
		grp := poiGroups[key]
		if len(grp.NotClassified) == 0 {
			continue
		}
		if len(grp.Gyms) > 0 || len(grp.Stops) > 0 {
			for _, p := range grp.NotClassified {
				g.Skipped = append(g.Skipped, p.GUID)
			}
			continue
		}
		if len(grp.NotClassified) == 1 {
			p := grp.NotClassified[0]
			p.Kind = model.KindPokestop
			g.NewPokestops = append(g.NewPokestops, p)
			continue
		}
		items := append([]model.POI(nil), grp.NotClassified...)
		sortByName(items)
		g.NeedsClassification = append(g.NeedsClassification, items)
	}

	gymGroups := GroupByCell(a.Levels.GymCell, pois)
	for _, key := range insideKeys(bounds, gymGroups) {
		grp := gymGroups[key]
		if len(grp.NotClassified) > 0 || ignored.Has(model.IgnoreMissingGyms, key) {
			continue
		}
		if grp.MissingGyms() > 0 {
			g.CellsMissingGyms = append(g.CellsMissingGyms, key)
		}
	}
	sort.Strings(g.Skipped)
	return g
}

// insideKeys returns the sorted keys of groups whose cell lies fully in bounds.
func insideKeys(bounds s2cell.LatLngRect, groups map[string]*CellGroup) []string {
	var out []string
	for k, grp := range groups {
		if bounds.ContainsRect(grp.Cell.CornerBounds()) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// GymCenter marks the level 20 cell of a gym with its two diagonals.
type GymCenter struct {
	GUID      string                `json:"guid"`
	Cell      string                `json:"cell"`
	Center    s2cell.GeoPoint       `json:"center"`
	Diagonals [2][2]s2cell.GeoPoint `json:"diagonals"`
}

// GymCenters returns a marker for each gym whose position is inside bounds.
func (a *Analyzer) GymCenters(bounds s2cell.LatLngRect, pois []model.POI) []GymCenter {
	out := []GymCenter{}
	for _, p := range pois {
		if p.Kind != model.KindGym || !bounds.Contains(p.Point()) {
			continue
		}
		c := p.Cell(a.Levels.GymCenter)
		cs := c.Corners()
		out = append(out, GymCenter{
			GUID:      p.GUID,
			Cell:      c.String(),
			Center:    c.Center(),
			Diagonals: [2][2]s2cell.GeoPoint{{cs[0], cs[2]}, {cs[1], cs[3]}},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GUID < out[j].GUID })
	return out
}
