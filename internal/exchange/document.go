// Package exchange converts POIs to and from the storage document and the
// CSV export, and runs bulk imports.
package exchange

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Item is the stored form of a POI. Extra fields are dropped.
type Item struct {
	GUID  string  `json:"guid"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Name  string  `json:"name"`
	IsEx  bool    `json:"isEx,omitempty"`
	Medal string  `json:"medal,omitempty"`
	Image string  `json:"image,omitempty"`
}

// Document is the full storage snapshot. Sections are keyed by guid and the
// ignored cell lists map a cell key to true.
type Document struct {
	Gyms                    map[string]Item `json:"gyms"`
	Pokestops               map[string]Item `json:"pokestops"`
	NotPogo                 map[string]Item `json:"notpogo"`
	IgnoredCellsExtraGyms   map[string]bool `json:"ignoredCellsExtraGyms"`
	IgnoredCellsMissingGyms map[string]bool `json:"ignoredCellsMissingGyms"`
}

func NewDocument() Document {
	return Document{
		Gyms:                    map[string]Item{},
		Pokestops:               map[string]Item{},
		NotPogo:                 map[string]Item{},
		IgnoredCellsExtraGyms:   map[string]bool{},
		IgnoredCellsMissingGyms: map[string]bool{},
	}
}

func itemOf(p model.POI) Item {
	return Item{GUID: p.GUID, Lat: p.Lat, Lng: p.Lng, Name: p.Name, IsEx: p.IsEx, Medal: p.Medal}
}

func (it Item) poi(kind model.Kind) model.POI {
	return model.POI{GUID: it.GUID, Lat: it.Lat, Lng: it.Lng, Name: it.Name, Kind: kind, IsEx: it.IsEx, Medal: it.Medal, Image: it.Image}
}

// BuildDocument snapshots pois and the ignored lists. Unclassified portals
// are not part of the snapshot.
func BuildDocument(pois []model.POI, extra, missing []string) Document {
	d := NewDocument()
	for _, p := range pois {
		switch p.Kind {
		case model.KindGym:
			d.Gyms[p.GUID] = itemOf(p)
		case model.KindPokestop:
			d.Pokestops[p.GUID] = itemOf(p)
		case model.KindNotPogo:
			d.NotPogo[p.GUID] = itemOf(p)
		}
	}
	for _, k := range extra {
		d.IgnoredCellsExtraGyms[k] = true
	}
	for _, k := range missing {
		d.IgnoredCellsMissingGyms[k] = true
	}
	return d
}

// Rejection explains why an imported item was skipped.
type Rejection struct {
	Section string `json:"section"`
	Key     string `json:"key"`
	Reason  string `json:"reason"`
}

type entry struct {
	section string
	key     string
	poi     model.POI
}

// entries lists every item with its section kind, in a stable order.
func (d Document) entries() []entry {
	var out []entry
	for _, sec := range []struct {
		name  string
		kind  model.Kind
		items map[string]Item
	}{
		{"gyms", model.KindGym, d.Gyms},
		{"pokestops", model.KindPokestop, d.Pokestops},
		{"notpogo", model.KindNotPogo, d.NotPogo},
	} {
		keys := make([]string, 0, len(sec.items))
		for k := range sec.items {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, entry{section: sec.name, key: k, poi: sec.items[k].poi(sec.kind)})
		}
	}
	return out
}

// IgnoredKeys returns the cell keys flagged true for kind.
func (d Document) IgnoredKeys(kind model.IgnoreKind) []string {
	src := d.IgnoredCellsExtraGyms
	if kind == model.IgnoreMissingGyms {
		src = d.IgnoredCellsMissingGyms
	}
	out := make([]string, 0, len(src))
	for k, v := range src {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func EncodeJSON(w io.Writer, v any) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// DecodeJSON reads a storage document. Missing sections decode as empty.
func DecodeJSON(r io.Reader) (Document, error) {
	d := NewDocument()
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}
	if d.Gyms == nil {
		d.Gyms = map[string]Item{}
	}
	if d.Pokestops == nil {
		d.Pokestops = map[string]Item{}
	}
	if d.NotPogo == nil {
		d.NotPogo = map[string]Item{}
	}
	if d.IgnoredCellsExtraGyms == nil {
		d.IgnoredCellsExtraGyms = map[string]bool{}
	}
	if d.IgnoredCellsMissingGyms == nil {
		d.IgnoredCellsMissingGyms = map[string]bool{}
	}
	return d, nil
}

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ExportType selects which POIs are exported.
type ExportType string

const (
	ExportGyms ExportType = "gyms"
	ExportAll  ExportType = "all"
)

func ParseExportType(s string) (ExportType, error) {
	switch t := ExportType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", ExportGyms:
		return ExportGyms, nil
	case ExportAll, "gyms+stops":
		return ExportAll, nil
	default:
		return "", fmt.Errorf("unknown export type %q (must be gyms or all)", s)
	}
}

// Select keeps gyms, or gyms and stops, that are inside r.
func Select(pois []model.POI, t ExportType, r s2cell.LatLngRect) []model.POI {
	out := make([]model.POI, 0, len(pois))
	for _, p := range pois {
		switch {
		case p.Kind == model.KindGym:
		case p.Kind == model.KindPokestop && t == ExportAll:
		default:
			continue
		}
		if r.Contains(p.Point()) {
			out = append(out, p)
		}
	}
	return out
}

// Export is the downloadable JSON: gyms always, pokestops for ExportAll.
type Export struct {
	Gyms      map[string]Item `json:"gyms"`
	Pokestops map[string]Item `json:"pokestops,omitempty"`
}

func BuildExport(pois []model.POI, t ExportType) Export {
	e := Export{Gyms: map[string]Item{}}
	if t == ExportAll {
		e.Pokestops = map[string]Item{}
	}
	for _, p := range pois {
		it := itemOf(p)
		it.Image = p.Image
		switch {
		case p.Kind == model.KindGym:
			e.Gyms[p.GUID] = it
		case p.Kind == model.KindPokestop && t == ExportAll:
			e.Pokestops[p.GUID] = it
		}
	}
	return e
}
