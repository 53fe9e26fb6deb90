package pogo

import (
	"sort"
	"strings"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

// CellGroup collects the POIs that fall in one cell. Items counts every
// POI including the ones marked as not in the game.
type CellGroup struct {
	Cell          s2cell.Cell
	Gyms          []model.POI
	Stops         []model.POI
	NotClassified []model.POI
	Items         int
}

func (g *CellGroup) MissingStops() int { return MissingStops(len(g.Gyms), len(g.Stops)) }
func (g *CellGroup) MissingGyms() int  { return MissingGyms(len(g.Gyms), len(g.Stops)) }
func (g *CellGroup) TotalStops() int   { return TotalStops(len(g.Gyms), len(g.Stops)) }

func (g *CellGroup) add(p model.POI) {
	g.Items++
	switch p.Kind {
	case model.KindGym:
		g.Gyms = append(g.Gyms, p)
	case model.KindPokestop:
		g.Stops = append(g.Stops, p)
	case model.KindNew:
		g.NotClassified = append(g.NotClassified, p)
	}
}

// GroupByCell buckets pois by their cell at level, keyed by cell key.
func GroupByCell(level int, pois []model.POI) map[string]*CellGroup {
	out := make(map[string]*CellGroup)
	for _, p := range pois {
		c := p.Cell(level)
		k := c.String()
		g, ok := out[k]
		if !ok {
			g = &CellGroup{Cell: c}
			out[k] = g
		}
		g.add(p)
	}
	return out
}

// FindCellItems returns the pois whose cell at level is key.
func FindCellItems(key string, level int, pois []model.POI) []model.POI {
	var out []model.POI
	for _, p := range pois {
		if p.Cell(level).String() == key {
			out = append(out, p)
		}
	}
	return out
}

func sortByName(pois []model.POI) {
	sort.SliceStable(pois, func(i, j int) bool {
		a, b := pois[i], pois[j]
		if a.Name == "" || b.Name == "" {
			return a.Name == "" && b.Name != ""
		}
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c < 0
		}
		return a.GUID < b.GUID
	})
}
