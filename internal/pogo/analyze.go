package pogo

import (
	"sort"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	s2mapper "github.com/mohammed-shakir/pogo-s2-overlay/internal/mapper/s2"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

type Status string

const (
	StatusOK          Status = "ok"
	StatusMissingGyms Status = "missing_gyms"
	StatusExtraGyms   Status = "extra_gyms"
)

// CellReport is the evaluation of one gym cell. It does not depend on the
// ignored lists, so it can be cached per cell.
type CellReport struct {
	Key           string      `json:"key"`
	Cell          s2cell.Cell `json:"cell"`
	Gyms          int         `json:"gyms"`
	Stops         int         `json:"stops"`
	NotClassified int         `json:"notClassified"`
	Items         int         `json:"items"`
	TotalStops    int         `json:"totalStops"`
	MissingGyms   int         `json:"missingGyms"`
	MissingStops  int         `json:"missingStops"`
	Status        Status      `json:"status"`
	Filled        bool        `json:"filled"`
	Ignored       bool        `json:"ignored,omitempty"`
	FilledCells   []string    `json:"filledCells,omitempty"`
}

// Label is the number written inside the cell on the map.
func (r CellReport) Label() int {
	if r.MissingStops == 0 {
		return r.TotalStops
	}
	return r.MissingStops
}

// Analysis is the set of reports for a viewport.
type Analysis struct {
	Reports          []CellReport     `json:"reports"`
	CloseToThreshold map[int][]string `json:"closeToThreshold"`
	ExtraGyms        []string         `json:"extraGyms"`
	MissingGyms      []string         `json:"missingGyms"`
}

// BuildReport evaluates the pois of one gym cell. poiLevel selects the
// cells marked as filled by a gym or a stop.
func BuildReport(cell s2cell.Cell, pois []model.POI, poiLevel int) CellReport {
	g := &CellGroup{Cell: cell}
	for _, p := range pois {
		g.add(p)
	}
	return reportFor(g, poiLevel)
}

func reportFor(g *CellGroup, poiLevel int) CellReport {
	r := CellReport{
		Key:           g.Cell.String(),
		Cell:          g.Cell,
		Gyms:          len(g.Gyms),
		Stops:         len(g.Stops),
		NotClassified: len(g.NotClassified),
		Items:         g.Items,
		TotalStops:    g.TotalStops(),
		MissingGyms:   g.MissingGyms(),
		MissingStops:  g.MissingStops(),
		Status:        StatusOK,
	}
	switch {
	case r.MissingGyms > 0:
		r.Status = StatusMissingGyms
	case r.MissingGyms < 0:
		r.Status = StatusExtraGyms
	}
	r.Filled = r.MissingStops == 0 && r.MissingGyms <= 0

	seen := make(map[string]struct{})
	for _, list := range [][]model.POI{g.Gyms, g.Stops} {
		for _, p := range list {
			k := p.Cell(poiLevel).String()
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			r.FilledCells = append(r.FilledCells, k)
		}
	}
	sort.Strings(r.FilledCells)
	return r
}

// Summarize applies the ignored lists and collects the threshold buckets.
// Reports without any item are dropped.
func Summarize(reports []CellReport, ignored IgnoredCells) Analysis {
	a := Analysis{
		Reports:          make([]CellReport, 0, len(reports)),
		CloseToThreshold: map[int][]string{1: {}, 2: {}, 3: {}},
		ExtraGyms:        []string{},
		MissingGyms:      []string{},
	}
	for _, r := range reports {
		if r.Items == 0 {
			continue
		}
		switch r.Status {
		case StatusMissingGyms:
			r.Ignored = ignored.Has(model.IgnoreMissingGyms, r.Key)
			if !r.Ignored {
				a.MissingGyms = append(a.MissingGyms, r.Key)
			}
		case StatusExtraGyms:
			r.Ignored = ignored.Has(model.IgnoreExtraGyms, r.Key)
			if !r.Ignored {
				a.ExtraGyms = append(a.ExtraGyms, r.Key)
			}
		}
		if r.MissingStops >= 1 && r.MissingStops <= 3 {
			a.CloseToThreshold[r.MissingStops] = append(a.CloseToThreshold[r.MissingStops], r.Key)
		}
		a.Reports = append(a.Reports, r)
	}
	sort.Slice(a.Reports, func(i, j int) bool { return a.Reports[i].Key < a.Reports[j].Key })
	for _, ks := range a.CloseToThreshold {
		sort.Strings(ks)
	}
	sort.Strings(a.ExtraGyms)
	sort.Strings(a.MissingGyms)
	return a
}

type Analyzer struct {
	Mapper *s2mapper.Mapper
	Levels Levels
}

func NewAnalyzer(m *s2mapper.Mapper, lv Levels) *Analyzer {
	if m == nil {
		m = s2mapper.New()
	}
	return &Analyzer{Mapper: m, Levels: lv}
}

// Cells returns the gym cells touching bounds, walking outwards from the
// cell at its centre.
func (a *Analyzer) Cells(bounds s2cell.LatLngRect) ([]s2cell.Cell, error) {
	return a.Mapper.CoverRect(bounds, a.Levels.GymCell)
}

func (a *Analyzer) Analyze(bounds s2cell.LatLngRect, pois []model.POI, ignored IgnoredCells) (Analysis, error) {
	cells, err := a.Cells(bounds)
	if err != nil {
		return Analysis{}, err
	}
	groups := GroupByCell(a.Levels.GymCell, pois)
	reports := make([]CellReport, 0, len(groups))
	for _, c := range cells {
		g, ok := groups[c.String()]
		if !ok {
			continue
		}
		reports = append(reports, reportFor(g, a.Levels.PoiCell))
	}
	return Summarize(reports, ignored), nil
}
