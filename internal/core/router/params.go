package router

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

// parseBBOX accepts x1,y1,x2,y2 with an optional EPSG:4326 suffix.
func parseBBOX(bboxParam string) (model.BBox, error) {
	parts := strings.Split(bboxParam, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return model.BBox{}, errors.New("expected 4 or 5 comma-separated values: x1,y1,x2,y2[,EPSG:4326]")
	}
	xMin, err := parseFloat(parts[0])
	if err != nil {
		return model.BBox{}, fmt.Errorf("x1: %w", err)
	}
	yMin, err := parseFloat(parts[1])
	if err != nil {
		return model.BBox{}, fmt.Errorf("y1: %w", err)
	}
	xMax, err := parseFloat(parts[2])
	if err != nil {
		return model.BBox{}, fmt.Errorf("x2: %w", err)
	}
	yMax, err := parseFloat(parts[3])
	if err != nil {
		return model.BBox{}, fmt.Errorf("y2: %w", err)
	}

	srid := "EPSG:4326"
	if len(parts) == 5 {
		srid = strings.ToUpper(strings.TrimSpace(parts[4]))
		if srid != "EPSG:4326" {
			return model.BBox{}, fmt.Errorf("only EPSG:4326 is supported (got %q)", srid)
		}
	}

	if !(xMin >= -180 && xMin <= 180 && xMax >= -180 && xMax <= 180) {
		return model.BBox{}, errors.New("longitude must be in [-180,180]")
	}
	if !(yMin >= -90 && yMin <= 90 && yMax >= -90 && yMax <= 90) {
		return model.BBox{}, errors.New("latitude must be in [-90,90]")
	}
	if xMax <= xMin || yMax <= yMin {
		return model.BBox{}, errors.New("coordinates must satisfy x2>x1 and y2>y1")
	}
	return model.BBox{X1: xMin, Y1: yMin, X2: xMax, Y2: yMax, SRID: srid}, nil
}

// parseFloat rejects NaN and infinities.
func parseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", v)
	}
	return f, nil
}

func parsePolygon(raw string) (model.Polygon, error) {
	var tmp struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return model.Polygon{}, fmt.Errorf("parse json: %w", err)
	}
	t := strings.TrimSpace(tmp.Type)
	switch t {
	case "Polygon", "MultiPolygon":
		return model.Polygon{GeoJSON: raw}, nil
	default:
		return model.Polygon{}, fmt.Errorf(`unsupported GeoJSON "type": %q (must be Polygon or MultiPolygon)`, t)
	}
}

func requiredBBox(r *http.Request) (model.BBox, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("bbox"))
	if raw == "" {
		return model.BBox{}, errors.New("missing required parameter: bbox")
	}
	bb, err := parseBBOX(raw)
	if err != nil {
		return model.BBox{}, fmt.Errorf("invalid bbox: %w", err)
	}
	return bb, nil
}

// levelParam reads ?level, falling back to def when absent.
func levelParam(r *http.Request, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("level"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid level %q", raw)
	}
	if !s2cell.ValidLevel(n) {
		return 0, fmt.Errorf("level %d out of range 0..%d", n, s2cell.MaxLevel)
	}
	return n, nil
}

func pointParam(r *http.Request) (s2cell.GeoPoint, error) {
	q := r.URL.Query()
	if q.Get("lat") == "" || q.Get("lng") == "" {
		return s2cell.GeoPoint{}, errors.New("missing required parameters: lat, lng")
	}
	lat, err := parseFloat(q.Get("lat"))
	if err != nil {
		return s2cell.GeoPoint{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := parseFloat(q.Get("lng"))
	if err != nil {
		return s2cell.GeoPoint{}, fmt.Errorf("lng: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return s2cell.GeoPoint{}, errors.New("lat must be in [-90,90] and lng in [-180,180]")
	}
	return s2cell.GeoPoint{Lat: lat, Lng: lng}, nil
}
