// Package memstore is the in-process POI store. POIs live in a map keyed by
// guid and in an R-tree for viewport queries.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
)

// pointSize is the side of the box indexed for a POI, roughly a centimetre.
const pointSize = 1e-7

type indexedPOI struct {
	poi model.POI
}

// Bounds implements rtreego.Spatial.
func (p *indexedPOI) Bounds() rtreego.Rect {
	return pointRect(p.poi.Point())
}

func pointRect(pt s2cell.GeoPoint) rtreego.Rect {
	r, _ := rtreego.NewRect(rtreego.Point{pt.Lng, pt.Lat}, []float64{pointSize, pointSize})
	return r
}

type Store struct {
	mu      sync.RWMutex
	byGUID  map[string]*indexedPOI
	rtree   *rtreego.Rtree
	ignored map[model.IgnoreKind]map[string]struct{}
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.byGUID = make(map[string]*indexedPOI)
	s.rtree = rtreego.NewTree(2, 25, 50)
	s.ignored = map[model.IgnoreKind]map[string]struct{}{
		model.IgnoreExtraGyms:   {},
		model.IgnoreMissingGyms: {},
	}
}

func (s *Store) Put(ctx context.Context, p model.POI) (*model.POI, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(p), nil
}

func (s *Store) putLocked(p model.POI) *model.POI {
	var prev *model.POI
	if old, ok := s.byGUID[p.GUID]; ok {
		cp := old.poi
		prev = &cp
		s.rtree.Delete(old)
	}
	ip := &indexedPOI{poi: p}
	s.byGUID[p.GUID] = ip
	s.rtree.Insert(ip)
	return prev
}

func (s *Store) PutMany(ctx context.Context, pois []model.POI) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, p := range pois {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pois {
		s.putLocked(p)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, guid string) (model.POI, error) {
	if err := ctx.Err(); err != nil {
		return model.POI{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ip, ok := s.byGUID[guid]
	if !ok {
		return model.POI{}, fmt.Errorf("%w: %s", store.ErrNotFound, guid)
	}
	return ip.poi, nil
}

func (s *Store) Delete(ctx context.Context, guid string) (model.POI, error) {
	if err := ctx.Err(); err != nil {
		return model.POI{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ip, ok := s.byGUID[guid]
	if !ok {
		return model.POI{}, fmt.Errorf("%w: %s", store.ErrNotFound, guid)
	}
	delete(s.byGUID, guid)
	s.rtree.Delete(ip)
	return ip.poi, nil
}

func (s *Store) InBounds(ctx context.Context, bb model.BBox) ([]model.POI, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.inRect(bb.Rect()), nil
}

func (s *Store) inRect(r s2cell.LatLngRect) []model.POI {
	lw := r.Hi.Lng - r.Lo.Lng
	lh := r.Hi.Lat - r.Lo.Lat
	if lw < pointSize {
		lw = pointSize
	}
	if lh < pointSize {
		lh = pointSize
	}
	q, err := rtreego.NewRect(rtreego.Point{r.Lo.Lng, r.Lo.Lat}, []float64{lw, lh})
	if err != nil {
		return []model.POI{}
	}

	s.mu.RLock()
	hits := s.rtree.SearchIntersect(q)
	s.mu.RUnlock()

	out := make([]model.POI, 0, len(hits))
	for _, h := range hits {
		p := h.(*indexedPOI).poi
		if r.Contains(p.Point()) {
			out = append(out, p)
		}
	}
	store.SortByGUID(out)
	return out
}

func (s *Store) All(ctx context.Context) ([]model.POI, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]model.POI, 0, len(s.byGUID))
	for _, ip := range s.byGUID {
		out = append(out, ip.poi)
	}
	s.mu.RUnlock()
	store.SortByGUID(out)
	return out, nil
}

func (s *Store) CellItems(ctx context.Context, cell s2cell.Cell) ([]model.POI, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return store.InCell(cell, s.inRect(cell.Bounds())), nil
}

func (s *Store) Ignore(ctx context.Context, kind model.IgnoreKind, cell string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.ignored[kind]
	if !ok {
		return fmt.Errorf("unknown ignore kind %q", kind)
	}
	set[cell] = struct{}{}
	return nil
}

func (s *Store) Unignore(ctx context.Context, cells ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.ignored {
		for _, c := range cells {
			delete(set, c)
		}
	}
	return nil
}

func (s *Store) Ignored(ctx context.Context, kind model.IgnoreKind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.ignored[kind]
	if !ok {
		return nil, fmt.Errorf("unknown ignore kind %q", kind)
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }
