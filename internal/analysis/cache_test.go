package analysis

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/logger"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/pogo"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

type countingSource struct {
	calls int
	pois  []model.POI
	err   error
	// onLoad runs inside CellItems, before the result is returned.
	onLoad func()
}

func (s *countingSource) CellItems(_ context.Context, c s2cell.Cell) ([]model.POI, error) {
	s.calls++
	if s.onLoad != nil {
		s.onLoad()
	}
	if s.err != nil {
		return nil, s.err
	}
	var out []model.POI
	for _, p := range s.pois {
		if p.Cell(c.Level) == c {
			out = append(out, p)
		}
	}
	return out, nil
}

var (
	home = s2cell.GeoPoint{Lat: 59.3293, Lng: 18.0686}
	cell = s2cell.CellFromPoint(home, pogo.GymCellLevel)
	gym  = model.POI{GUID: "g", Lat: home.Lat, Lng: home.Lng, Kind: model.KindGym}
	stop = model.POI{GUID: "s", Lat: home.Lat, Lng: home.Lng, Kind: model.KindPokestop}
)

func newReporter(t *testing.T, src CellSource) *Reporter {
	t.Helper()
	c, err := NewCache(8)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return &Reporter{Cache: c, Source: src, PoiLevel: pogo.PoiCellLevel}
}

func TestReporter_CachesUntilPurged(t *testing.T) {
	src := &countingSource{pois: []model.POI{gym, stop}}
	r := newReporter(t, src)
	ctx := context.Background()

	rep, err := r.Report(ctx, cell)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.Gyms != 1 || rep.Stops != 1 || rep.Key != cell.String() {
		t.Fatalf("unexpected report %+v", rep)
	}
	if _, err := r.Report(ctx, cell); err != nil || src.calls != 1 {
		t.Fatalf("second Report should hit cache, calls=%d err=%v", src.calls, err)
	}

	src.pois = []model.POI{gym}
	r.Cache.Purge(cell.String())
	rep, err = r.Report(ctx, cell)
	if err != nil || src.calls != 2 || rep.Stops != 0 {
		t.Fatalf("after purge calls=%d report=%+v err=%v", src.calls, rep, err)
	}
}

func TestReporter_PurgeDuringLoadIsNotCached(t *testing.T) {
	src := &countingSource{pois: []model.POI{gym}}
	r := newReporter(t, src)
	src.onLoad = func() { r.Cache.Purge(cell.String()) }

	if _, err := r.Report(context.Background(), cell); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if r.Cache.Len() != 0 {
		t.Fatalf("stale report was cached")
	}
}

func TestReporter_SourceError(t *testing.T) {
	boom := errors.New("boom")
	r := newReporter(t, &countingSource{err: boom})
	if _, err := r.Reports(context.Background(), []s2cell.Cell{cell}); !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	if r.Cache.Len() != 0 {
		t.Fatalf("error result was cached")
	}
}

func TestCache_PurgeAll(t *testing.T) {
	c, _ := NewCache(0)
	c.Add(pogo.CellReport{Key: "a"})
	c.Add(pogo.CellReport{Key: "b"})
	c.PurgeAll()
	if c.Len() != 0 {
		t.Fatalf("len=%d after PurgeAll", c.Len())
	}
}

func TestReporter_LogsCarryCellKey(t *testing.T) {
	var buf bytes.Buffer
	zl := logger.Build(logger.Config{Level: "debug"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	r := newReporter(t, &countingSource{pois: []model.POI{gym}})
	r.Log = logger.NewSlog(&zl)
	if _, err := r.Report(context.Background(), cell); err != nil {
		t.Fatalf("Report: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"cell":"`+cell.String()+`"`) || !strings.Contains(out, "cell report computed") {
		t.Fatalf("log line missing cell key: %s", out)
	}
}
