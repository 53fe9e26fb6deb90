// Package store defines the POI persistence contract shared by the memory
// and redis drivers.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

var ErrNotFound = errors.New("poi not found")

type Store interface {
	// Put inserts or replaces p. The previous version is returned when one
	// existed so callers can refresh the cell it left.
	Put(ctx context.Context, p model.POI) (prev *model.POI, err error)
	PutMany(ctx context.Context, pois []model.POI) error
	Get(ctx context.Context, guid string) (model.POI, error)
	Delete(ctx context.Context, guid string) (model.POI, error)

	// InBounds returns the POIs inside bb sorted by guid.
	InBounds(ctx context.Context, bb model.BBox) ([]model.POI, error)
	All(ctx context.Context) ([]model.POI, error)
	CellItems(ctx context.Context, cell s2cell.Cell) ([]model.POI, error)

	Ignore(ctx context.Context, kind model.IgnoreKind, cell string) error
	// Unignore drops cell keys from both ignored lists.
	Unignore(ctx context.Context, cells ...string) error
	Ignored(ctx context.Context, kind model.IgnoreKind) ([]string, error)

	Reset(ctx context.Context) error
	Close() error
}

// SortByGUID orders pois in place.
func SortByGUID(pois []model.POI) {
	sort.Slice(pois, func(i, j int) bool { return pois[i].GUID < pois[j].GUID })
}

// InCell keeps the pois whose cell at c's level is c.
func InCell(c s2cell.Cell, pois []model.POI) []model.POI {
	out := make([]model.POI, 0, len(pois))
	for _, p := range pois {
		if p.Cell(c.Level) == c {
			out = append(out, p)
		}
	}
	return out
}

// InRect keeps the pois inside r.
func InRect(r s2cell.LatLngRect, pois []model.POI) []model.POI {
	out := make([]model.POI, 0, len(pois))
	for _, p := range pois {
		if r.Contains(p.Point()) {
			out = append(out, p)
		}
	}
	return out
}
