package pogo

import (
	"reflect"
	"sort"
	"testing"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

func TestGroupByCell_CountsPerKind(t *testing.T) {
	c := s2cell.CellFromPoint(stockholm, GymCellLevel)
	pois := concat(
		poisIn(t, c, "gym", model.KindGym, 1),
		poisIn(t, c, "stop", model.KindPokestop, 3),
		poisIn(t, c, "new", model.KindNew, 2),
		poisIn(t, c, "np", model.KindNotPogo, 1),
	)
	groups := GroupByCell(GymCellLevel, pois)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	g := groups[c.String()]
	if g == nil {
		t.Fatalf("group %s missing", c)
	}
	if len(g.Gyms) != 1 || len(g.Stops) != 3 || len(g.NotClassified) != 2 || g.Items != 7 {
		t.Fatalf("unexpected counts: gyms=%d stops=%d new=%d items=%d",
			len(g.Gyms), len(g.Stops), len(g.NotClassified), g.Items)
	}
	if g.TotalStops() != 4 || g.MissingStops() != 2 || g.MissingGyms() != 0 {
		t.Fatalf("rules: total=%d missingStops=%d missingGyms=%d",
			g.TotalStops(), g.MissingStops(), g.MissingGyms())
	}

	items := FindCellItems(c.String(), GymCellLevel, pois)
	if len(items) != len(pois) {
		t.Fatalf("FindCellItems returned %d of %d", len(items), len(pois))
	}
	if got := FindCellItems("F0ij[0,0]@14", GymCellLevel, pois); len(got) != 0 {
		t.Fatalf("expected no items in a far cell, got %d", len(got))
	}
}

func TestAnalyze_ReportsAndBuckets(t *testing.T) {
	a := NewAnalyzer(nil, DefaultLevels())

	home := s2cell.CellFromPoint(stockholm, GymCellLevel)
	next := home.Neighbors()[2]
	third := home.Neighbors()[0]

	pois := concat(
		// 1 gym + 4 stops: one stop away from the next gym
		poisIn(t, home, "hg", model.KindGym, 1),
		poisIn(t, home, "hs", model.KindPokestop, 4),
		// 2 gyms, no stops: one gym too many
		poisIn(t, next, "ng", model.KindGym, 2),
		// only a portal that is not in the game
		poisIn(t, third, "np", model.KindNotPogo, 1),
	)

	an, err := a.Analyze(around(0.001, home, next, third), pois, IgnoredCells{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(an.Reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(an.Reports))
	}
	if !sort.SliceIsSorted(an.Reports, func(i, j int) bool { return an.Reports[i].Key < an.Reports[j].Key }) {
		t.Fatalf("reports must be sorted by key")
	}
	byKey := map[string]CellReport{}
	for _, r := range an.Reports {
		byKey[r.Key] = r
	}

	h := byKey[home.String()]
	if h.MissingStops != 1 || h.MissingGyms != 0 || h.Status != StatusOK || h.TotalStops != 5 || h.Filled {
		t.Fatalf("home report: %+v", h)
	}
	if h.Label() != 1 {
		t.Fatalf("home label=%d", h.Label())
	}
	if len(h.FilledCells) == 0 || !sort.StringsAreSorted(h.FilledCells) {
		t.Fatalf("home filled cells: %v", h.FilledCells)
	}
	for _, k := range h.FilledCells {
		c, err := s2cell.ParseCell(k)
		if err != nil || c.Level != PoiCellLevel || c.ParentAt(GymCellLevel) != home {
			t.Fatalf("filled cell %s is not a level 17 child of %s", k, home)
		}
	}

	n := byKey[next.String()]
	if n.Status != StatusExtraGyms || n.MissingGyms != -1 || n.MissingStops != 18 || n.Ignored {
		t.Fatalf("next report: %+v", n)
	}

	th := byKey[third.String()]
	if th.Items != 1 || th.MissingStops != 2 || len(th.FilledCells) != 0 {
		t.Fatalf("third report: %+v", th)
	}

	if !reflect.DeepEqual(an.CloseToThreshold[1], []string{home.String()}) {
		t.Fatalf("bucket 1: %v", an.CloseToThreshold[1])
	}
	if !reflect.DeepEqual(an.CloseToThreshold[2], []string{third.String()}) {
		t.Fatalf("bucket 2: %v", an.CloseToThreshold[2])
	}
	if len(an.CloseToThreshold[3]) != 0 {
		t.Fatalf("bucket 3: %v", an.CloseToThreshold[3])
	}
	if !reflect.DeepEqual(an.ExtraGyms, []string{next.String()}) || len(an.MissingGyms) != 0 {
		t.Fatalf("extra=%v missing=%v", an.ExtraGyms, an.MissingGyms)
	}
}

func TestAnalyze_IgnoredCellsAreFlagged(t *testing.T) {
	a := NewAnalyzer(nil, DefaultLevels())
	home := s2cell.CellFromPoint(stockholm, GymCellLevel)
	next := home.Neighbors()[1]

	pois := concat(
		poisIn(t, home, "g", model.KindGym, 2),
		poisIn(t, next, "s", model.KindPokestop, 2),
	)
	ignored := NewIgnoredCells([]string{home.String()}, []string{next.String()})

	an, err := a.Analyze(around(0.001, home, next), pois, ignored)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(an.ExtraGyms) != 0 || len(an.MissingGyms) != 0 {
		t.Fatalf("ignored cells must not be listed: extra=%v missing=%v", an.ExtraGyms, an.MissingGyms)
	}
	for _, r := range an.Reports {
		if !r.Ignored {
			t.Fatalf("report %s should be flagged ignored: %+v", r.Key, r)
		}
	}

	an, err = a.Analyze(around(0.001, home, next), pois, IgnoredCells{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !reflect.DeepEqual(an.ExtraGyms, []string{home.String()}) ||
		!reflect.DeepEqual(an.MissingGyms, []string{next.String()}) {
		t.Fatalf("extra=%v missing=%v", an.ExtraGyms, an.MissingGyms)
	}
}

func TestAnalyze_FilledCell(t *testing.T) {
	a := NewAnalyzer(nil, DefaultLevels())
	home := s2cell.CellFromPoint(stockholm, GymCellLevel)
	pois := concat(
		poisIn(t, home, "g", model.KindGym, 3),
		poisIn(t, home, "s", model.KindPokestop, 17),
	)
	an, err := a.Analyze(around(0.001, home), pois, IgnoredCells{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(an.Reports) != 1 {
		t.Fatalf("expected one report, got %d", len(an.Reports))
	}
	r := an.Reports[0]
	if !r.Filled || r.MissingStops != 0 || r.MissingGyms != 0 || r.Label() != 20 {
		t.Fatalf("filled report: %+v", r)
	}
}

func TestAnalyze_OffscreenItemsIgnoredAndEmptyViewport(t *testing.T) {
	a := NewAnalyzer(nil, DefaultLevels())
	home := s2cell.CellFromPoint(stockholm, GymCellLevel)
	far := s2cell.CellFromPoint(s2cell.GeoPoint{Lat: 40.7128, Lng: -74.0060}, GymCellLevel)
	pois := poisIn(t, far, "g", model.KindGym, 1)

	an, err := a.Analyze(around(0.001, home), pois, IgnoredCells{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(an.Reports) != 0 {
		t.Fatalf("expected no reports, got %+v", an.Reports)
	}
	for b := 1; b <= 3; b++ {
		if an.CloseToThreshold[b] == nil {
			t.Fatalf("bucket %d must be an empty list, not nil", b)
		}
	}
}

func TestBuildReport_MatchesAnalyze(t *testing.T) {
	a := NewAnalyzer(nil, DefaultLevels())
	home := s2cell.CellFromPoint(stockholm, GymCellLevel)
	pois := concat(
		poisIn(t, home, "g", model.KindGym, 1),
		poisIn(t, home, "s", model.KindPokestop, 6),
	)
	an, err := a.Analyze(around(0.001, home), pois, IgnoredCells{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	r := BuildReport(home, pois, PoiCellLevel)
	if !reflect.DeepEqual(r, an.Reports[0]) {
		t.Fatalf("BuildReport=%+v\nAnalyze=%+v", r, an.Reports[0])
	}
	if r.Status != StatusMissingGyms || r.MissingGyms != 1 {
		t.Fatalf("7 items with 1 gym should miss a gym: %+v", r)
	}
}

func TestAnalyze_InvalidLevel(t *testing.T) {
	a := NewAnalyzer(nil, Levels{GymCell: 31, PoiCell: 17, GymCenter: 20})
	if _, err := a.Analyze(around(0.001, s2cell.CellFromPoint(stockholm, 14)), nil, IgnoredCells{}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
