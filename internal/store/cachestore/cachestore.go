// Package cachestore is the redis backed POI store. Documents live in the
// feature store and every POI is indexed by its gym and poi cells.
package cachestore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/cellindex"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/featurestore"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/keys"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/redisstore"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	s2mapper "github.com/mohammed-shakir/pogo-s2-overlay/internal/mapper/s2"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
)

type Store struct {
	cli    *redisstore.Client
	docs   featurestore.FeatureStore
	index  cellindex.CellIndex
	mapper *s2mapper.Mapper
	// levels holds the indexed cell levels; the first one drives bbox lookups.
	levels []int
}

var _ store.Store = (*Store)(nil)

// New indexes POIs at the given cell levels, coarsest first.
func New(cli *redisstore.Client, mapper *s2mapper.Mapper, levels ...int) (*Store, error) {
	if cli == nil {
		return nil, errors.New("cachestore: nil redis client")
	}
	if len(levels) == 0 {
		return nil, errors.New("cachestore: at least one index level is required")
	}
	for _, l := range levels {
		if !s2cell.ValidLevel(l) {
			return nil, fmt.Errorf("cachestore: invalid index level %d", l)
		}
	}
	if mapper == nil {
		mapper = s2mapper.New()
	}
	lv := append([]int(nil), levels...)
	sort.Ints(lv)
	return &Store{
		cli:    cli,
		docs:   featurestore.NewRedisStore(cli),
		index:  cellindex.NewRedisIndex(cli),
		mapper: mapper,
		levels: lv,
	}, nil
}

func (s *Store) indexed(level int) bool {
	for _, l := range s.levels {
		if l == level {
			return true
		}
	}
	return false
}

func (s *Store) addIndex(ctx context.Context, p model.POI) error {
	for _, l := range s.levels {
		if err := s.index.Add(ctx, l, p.Cell(l).String(), p.GUID); err != nil {
			return err
		}
	}
	return s.cli.SAdd(ctx, keys.AllKey, p.GUID)
}

func (s *Store) removeIndex(ctx context.Context, p model.POI) error {
	for _, l := range s.levels {
		if err := s.index.Remove(ctx, l, p.Cell(l).String(), p.GUID); err != nil {
			return err
		}
	}
	return s.cli.SRem(ctx, keys.AllKey, p.GUID)
}

func (s *Store) Put(ctx context.Context, p model.POI) (*model.POI, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	found, err := s.docs.MGetPOIs(ctx, []string{p.GUID})
	if err != nil {
		return nil, err
	}
	var prev *model.POI
	if old, ok := found[p.GUID]; ok {
		prev = &old
		if err := s.removeIndex(ctx, old); err != nil {
			return nil, fmt.Errorf("cachestore unindex %s: %w", p.GUID, err)
		}
	}
	if err := s.docs.PutPOIs(ctx, []model.POI{p}); err != nil {
		return nil, err
	}
	if err := s.addIndex(ctx, p); err != nil {
		return nil, fmt.Errorf("cachestore index %s: %w", p.GUID, err)
	}
	return prev, nil
}

func (s *Store) PutMany(ctx context.Context, pois []model.POI) error {
	for _, p := range pois {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if len(pois) == 0 {
		return nil
	}
	ids := make([]string, len(pois))
	for i, p := range pois {
		ids[i] = p.GUID
	}
	found, err := s.docs.MGetPOIs(ctx, ids)
	if err != nil {
		return err
	}
	for _, old := range found {
		if err := s.removeIndex(ctx, old); err != nil {
			return fmt.Errorf("cachestore unindex %s: %w", old.GUID, err)
		}
	}
	if err := s.docs.PutPOIs(ctx, pois); err != nil {
		return err
	}
	for _, p := range pois {
		if err := s.addIndex(ctx, p); err != nil {
			return fmt.Errorf("cachestore index %s: %w", p.GUID, err)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, guid string) (model.POI, error) {
	found, err := s.docs.MGetPOIs(ctx, []string{guid})
	if err != nil {
		return model.POI{}, err
	}
	p, ok := found[guid]
	if !ok {
		return model.POI{}, fmt.Errorf("%w: %s", store.ErrNotFound, guid)
	}
	return p, nil
}

func (s *Store) Delete(ctx context.Context, guid string) (model.POI, error) {
	p, err := s.Get(ctx, guid)
	if err != nil {
		return model.POI{}, err
	}
	if err := s.removeIndex(ctx, p); err != nil {
		return model.POI{}, fmt.Errorf("cachestore unindex %s: %w", guid, err)
	}
	if err := s.docs.DeletePOIs(ctx, guid); err != nil {
		return model.POI{}, err
	}
	return p, nil
}

// load fetches the documents of ids, skipping ids whose document vanished.
func (s *Store) load(ctx context.Context, ids []string) ([]model.POI, error) {
	found, err := s.docs.MGetPOIs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.POI, 0, len(found))
	for _, p := range found {
		out = append(out, p)
	}
	store.SortByGUID(out)
	return out, nil
}

func (s *Store) InBounds(ctx context.Context, bb model.BBox) ([]model.POI, error) {
	r := bb.Rect()
	cells, err := s.mapper.CoverRect(r, s.levels[0])
	if errors.Is(err, s2mapper.ErrTooManyCells) {
		all, err := s.All(ctx)
		if err != nil {
			return nil, err
		}
		return store.InRect(r, all), nil
	}
	if err != nil {
		return nil, err
	}
	cks := make([]string, len(cells))
	for i, c := range cells {
		cks[i] = c.String()
	}
	ids, err := s.index.IDs(ctx, s.levels[0], cks...)
	if err != nil {
		return nil, err
	}
	pois, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	return store.InRect(r, pois), nil
}

func (s *Store) All(ctx context.Context) ([]model.POI, error) {
	ids, err := s.cli.SMembers(ctx, keys.AllKey)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, ids)
}

func (s *Store) CellItems(ctx context.Context, cell s2cell.Cell) ([]model.POI, error) {
	if !s.indexed(cell.Level) {
		pois, err := s.InBounds(ctx, model.BBoxFromRect(cell.Bounds()))
		if err != nil {
			return nil, err
		}
		return store.InCell(cell, pois), nil
	}
	ids, err := s.index.IDs(ctx, cell.Level, cell.String())
	if err != nil {
		return nil, err
	}
	return s.load(ctx, ids)
}

func (s *Store) Ignore(ctx context.Context, kind model.IgnoreKind, cell string) error {
	if _, err := model.ParseIgnoreKind(string(kind)); err != nil {
		return err
	}
	return s.cli.SAdd(ctx, keys.IgnoredKey(string(kind)), cell)
}

func (s *Store) Unignore(ctx context.Context, cells ...string) error {
	for _, k := range []model.IgnoreKind{model.IgnoreExtraGyms, model.IgnoreMissingGyms} {
		if err := s.cli.SRem(ctx, keys.IgnoredKey(string(k)), cells...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Ignored(ctx context.Context, kind model.IgnoreKind) ([]string, error) {
	if _, err := model.ParseIgnoreKind(string(kind)); err != nil {
		return nil, err
	}
	out, err := s.cli.SMembers(ctx, keys.IgnoredKey(string(kind)))
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Reset deletes every key written by the store.
func (s *Store) Reset(ctx context.Context) error {
	var all []string
	for _, pattern := range []string{keys.PoiPrefix + "*", keys.CellPrefix + "*", "ignored:*"} {
		ks, err := s.cli.ScanKeys(ctx, pattern)
		if err != nil {
			return err
		}
		all = append(all, ks...)
	}
	if len(all) == 0 {
		return nil
	}
	return s.cli.Del(ctx, all...)
}

func (s *Store) Close() error { return s.cli.Close() }
