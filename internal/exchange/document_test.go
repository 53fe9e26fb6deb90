package exchange

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

var (
	gymA  = model.POI{GUID: "g1", Lat: 59.33, Lng: 18.06, Name: "Gym", Kind: model.KindGym, IsEx: true, Medal: "gold", Image: "http://img"}
	stopB = model.POI{GUID: "s1", Lat: 59.34, Lng: 18.07, Name: "Stop", Kind: model.KindPokestop}
	notC  = model.POI{GUID: "n1", Lat: 59.35, Lng: 18.08, Kind: model.KindNotPogo}
	newD  = model.POI{GUID: "p1", Lat: 59.36, Lng: 18.09, Kind: model.KindNew}
)

func TestBuildDocument_SectionsAndCleanup(t *testing.T) {
	d := BuildDocument([]model.POI{gymA, stopB, notC, newD}, []string{"F2ij[1,1]@14"}, nil)

	if len(d.Gyms) != 1 || len(d.Pokestops) != 1 || len(d.NotPogo) != 1 {
		t.Fatalf("unexpected sections: %+v", d)
	}
	g := d.Gyms["g1"]
	if g.Image != "" {
		t.Fatalf("image should be dropped from storage, got %q", g.Image)
	}
	if !g.IsEx || g.Medal != "gold" || g.Name != "Gym" {
		t.Fatalf("kept fields lost: %+v", g)
	}
	if !d.IgnoredCellsExtraGyms["F2ij[1,1]@14"] || len(d.IgnoredCellsMissingGyms) != 0 {
		t.Fatalf("ignored lists wrong: %+v %+v", d.IgnoredCellsExtraGyms, d.IgnoredCellsMissingGyms)
	}
}

func TestDocument_EncodeDecode(t *testing.T) {
	d := BuildDocument([]model.POI{gymA, stopB, notC}, []string{"F2ij[1,1]@14"}, []string{"F2ij[2,2]@14"})
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, d); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	for _, k := range []string{"gyms", "pokestops", "notpogo", "ignoredCellsExtraGyms", "ignoredCellsMissingGyms"} {
		if _, ok := raw[k]; !ok {
			t.Fatalf("missing top-level key %q in %s", k, buf.String())
		}
	}

	back, err := DecodeJSON(&buf)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !reflect.DeepEqual(back, d) {
		t.Fatalf("document changed:\n got %+v\nwant %+v", back, d)
	}
}

func TestDecodeJSON_MissingSections(t *testing.T) {
	d, err := DecodeJSON(strings.NewReader(`{"gyms":{"g1":{"guid":"g1","lat":1,"lng":2}}}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if len(d.Gyms) != 1 || d.Pokestops == nil || d.NotPogo == nil ||
		d.IgnoredCellsExtraGyms == nil || d.IgnoredCellsMissingGyms == nil {
		t.Fatalf("sections should default to empty maps: %+v", d)
	}
	if got := d.entries(); len(got) != 1 || got[0].poi.Kind != model.KindGym {
		t.Fatalf("entries = %+v", got)
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	if _, err := DecodeJSON(strings.NewReader(`{"gyms":[`)); err == nil {
		t.Fatalf("expected error on malformed input")
	}
}

func TestIgnoredKeys_OnlyTrue(t *testing.T) {
	d := NewDocument()
	d.IgnoredCellsMissingGyms["b"] = true
	d.IgnoredCellsMissingGyms["a"] = true
	d.IgnoredCellsMissingGyms["c"] = false
	got := d.IgnoredKeys(model.IgnoreMissingGyms)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("IgnoredKeys = %v", got)
	}
}

func TestParseExportType(t *testing.T) {
	cases := map[string]ExportType{"": ExportGyms, "gyms": ExportGyms, "ALL": ExportAll, "gyms+stops": ExportAll}
	for in, want := range cases {
		got, err := ParseExportType(in)
		if err != nil || got != want {
			t.Fatalf("ParseExportType(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseExportType("stops"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "json": FormatJSON, "CSV": FormatCSV} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSelectAndBuildExport(t *testing.T) {
	r := s2cell.LatLngRect{Lo: s2cell.GeoPoint{Lat: 59.3, Lng: 18.0}, Hi: s2cell.GeoPoint{Lat: 59.345, Lng: 18.1}}
	far := model.POI{GUID: "g2", Lat: 10, Lng: 10, Kind: model.KindGym}
	all := []model.POI{gymA, stopB, notC, newD, far}

	gyms := Select(all, ExportGyms, r)
	if len(gyms) != 1 || gyms[0].GUID != "g1" {
		t.Fatalf("Select gyms = %+v", gyms)
	}
	both := Select(all, ExportAll, r)
	if len(both) != 2 {
		t.Fatalf("Select all = %+v", both)
	}

	e := BuildExport(gyms, ExportGyms)
	if e.Pokestops != nil {
		t.Fatalf("gyms export should omit pokestops")
	}
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, e); err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if strings.Contains(buf.String(), "pokestops") {
		t.Fatalf("pokestops key present: %s", buf.String())
	}

	e = BuildExport(both, ExportAll)
	if len(e.Gyms) != 1 || len(e.Pokestops) != 1 || e.Gyms["g1"].Image != "http://img" {
		t.Fatalf("BuildExport all = %+v", e)
	}
}
