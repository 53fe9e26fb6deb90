// cellctl prints the cell that contains a point, or describes a cell key or
// S2 token.
package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

type options struct {
	lat, lng float64
	level    int
	key      string
	token    string
	asJSON   bool
}

func main() {
	var o options
	pflag.Float64Var(&o.lat, "lat", math.NaN(), "latitude in degrees")
	pflag.Float64Var(&o.lng, "lng", math.NaN(), "longitude in degrees")
	pflag.IntVar(&o.level, "level", 14, "cell level 0..30")
	pflag.StringVar(&o.key, "key", "", "describe a cell key such as F2ij[100,200]@10")
	pflag.StringVar(&o.token, "token", "", "describe an S2 cell token")
	pflag.BoolVar(&o.asJSON, "json", false, "print JSON instead of text")
	pflag.Parse()

	c, err := resolve(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cellctl:", err)
		pflag.Usage()
		os.Exit(2)
	}
	if err := describe(os.Stdout, c, o.asJSON); err != nil {
		fmt.Fprintln(os.Stderr, "cellctl:", err)
		os.Exit(1)
	}
}

func resolve(o options) (s2cell.Cell, error) {
	switch {
	case o.key != "":
		return s2cell.ParseCell(strings.TrimSpace(o.key))
	case o.token != "":
		c, ok := s2cell.CellFromToken(strings.TrimSpace(o.token))
		if !ok {
			return s2cell.Cell{}, fmt.Errorf("invalid token %q", o.token)
		}
		return c, nil
	}
	p := s2cell.GeoPoint{Lat: o.lat, Lng: o.lng}
	if !p.IsFinite() {
		return s2cell.Cell{}, errors.New("-lat and -lng are required")
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return s2cell.Cell{}, errors.New("lat must be in [-90,90] and lng in [-180,180]")
	}
	if !s2cell.ValidLevel(o.level) {
		return s2cell.Cell{}, fmt.Errorf("level %d out of range 0..%d", o.level, s2cell.MaxLevel)
	}
	return s2cell.CellFromPoint(p, o.level), nil
}

type description struct {
	Key       string             `json:"key"`
	Token     string             `json:"token"`
	Center    s2cell.GeoPoint    `json:"center"`
	Corners   [4]s2cell.GeoPoint `json:"corners"`
	Neighbors []string           `json:"neighbors"`
}

func describe(w io.Writer, c s2cell.Cell, asJSON bool) error {
	d := description{Key: c.String(), Token: c.Token(), Center: c.Center(), Corners: c.Corners()}
	for _, n := range c.Neighbors() {
		d.Neighbors = append(d.Neighbors, n.String())
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "key\t%s\n", d.Key)
	fmt.Fprintf(tw, "token\t%s\n", d.Token)
	fmt.Fprintf(tw, "center\t%s\n", point(d.Center))
	for i, p := range d.Corners {
		fmt.Fprintf(tw, "corner %d\t%s\n", i, point(p))
	}
	fmt.Fprintf(tw, "neighbors\t%s\n", strings.Join(d.Neighbors, " "))
	return tw.Flush()
}

func point(p s2cell.GeoPoint) string {
	return fmt.Sprintf("%.7f,%.7f", p.Lat, p.Lng)
}
