package exchange

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
)

// WriteCSV writes one "name,lat,lng" line per POI. Commas in names become
// spaces and the name column is left out when the name is empty.
func WriteCSV(w io.Writer, pois []model.POI) error {
	cw := csv.NewWriter(w)
	for _, p := range pois {
		lat := strconv.FormatFloat(p.Lat, 'f', -1, 64)
		lng := strconv.FormatFloat(p.Lng, 'f', -1, 64)
		rec := []string{lat, lng}
		if p.Name != "" {
			rec = []string{strings.ReplaceAll(p.Name, ",", " "), lat, lng}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %s: %w", p.GUID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
