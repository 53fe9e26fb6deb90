// Package overlay ties the POI store, the gym rules and the analysis cache
// together and keeps ignored cells and cached reports in step with POI
// changes.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/analysis"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/config"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/events"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/exchange"
	mylog "github.com/mohammed-shakir/pogo-s2-overlay/internal/logger"
	s2mapper "github.com/mohammed-shakir/pogo-s2-overlay/internal/mapper/s2"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/pogo"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
)

// ErrInvalid wraps input the service refuses.
var ErrInvalid = errors.New("invalid input")

type Options struct {
	Store         store.Store
	Mapper        *s2mapper.Mapper
	Levels        pogo.Levels
	Cache         *analysis.Cache
	Events        events.Sink
	Settings      config.Settings
	ImportWorkers int
	// Source identifies this instance in published events.
	Source string
	Logger *slog.Logger
}

type Service struct {
	store    store.Store
	mapper   *s2mapper.Mapper
	analyzer *pogo.Analyzer
	cache    *analysis.Cache
	reports  *analysis.Reporter
	events   events.Sink
	settings config.Settings
	importer *exchange.Importer
	source   string
	seq      atomic.Uint64
	log      *slog.Logger
}

func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("overlay: store is required")
	}
	if opts.Mapper == nil {
		opts.Mapper = s2mapper.New()
	}
	if opts.Levels == (pogo.Levels{}) {
		opts.Levels = pogo.DefaultLevels()
	}
	if opts.Cache == nil {
		c, err := analysis.NewCache(analysis.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		opts.Cache = c
	}
	if opts.Events == nil {
		opts.Events = events.Nop{}
	}
	if opts.Settings.Grids == nil {
		opts.Settings = config.DefaultSettings()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Service{
		store:    opts.Store,
		mapper:   opts.Mapper,
		analyzer: pogo.NewAnalyzer(opts.Mapper, opts.Levels),
		cache:    opts.Cache,
		reports:  &analysis.Reporter{Cache: opts.Cache, Source: opts.Store, PoiLevel: opts.Levels.PoiCell, Log: opts.Logger},
		events:   opts.Events,
		settings: opts.Settings,
		importer: &exchange.Importer{
			Store:     opts.Store,
			Workers:   opts.ImportWorkers,
			CellLevel: opts.Levels.GymCell,
			Log:       opts.Logger,
		},
		source: opts.Source,
		log:    opts.Logger,
	}
	// seeded from the clock so a restarted instance keeps increasing
	s.seq.Store(uint64(time.Now().UnixNano()))
	return s, nil
}

func (s *Service) Levels() pogo.Levels       { return s.analyzer.Levels }
func (s *Service) Settings() config.Settings { return s.settings }
func (s *Service) Mapper() *s2mapper.Mapper  { return s.mapper }

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}

// normalize fills in the canonical kind name and validates p.
func normalize(p model.POI) (model.POI, error) {
	k, err := model.ParseKind(string(p.Kind))
	if err != nil {
		return model.POI{}, invalid(err)
	}
	p.Kind = k
	if err := p.Validate(); err != nil {
		return model.POI{}, invalid(err)
	}
	return p, nil
}

// PutPOI stores p and publishes the change.
func (s *Service) PutPOI(ctx context.Context, p model.POI) (model.POI, error) {
	p, err := s.putLocal(ctx, p)
	if err != nil {
		return model.POI{}, err
	}
	s.events.Publish(events.Upsert(p, s.seq.Add(1), s.source))
	return p, nil
}

func (s *Service) putLocal(ctx context.Context, p model.POI) (model.POI, error) {
	p, err := normalize(p)
	if err != nil {
		return model.POI{}, err
	}
	prev, err := s.store.Put(ctx, p)
	if err != nil {
		return model.POI{}, fmt.Errorf("put poi %s: %w", p.GUID, err)
	}
	cells := []string{s.gymCellKey(p)}
	if prev != nil {
		cells = append(cells, s.gymCellKey(*prev))
	}
	if err := s.touch(ctx, cells...); err != nil {
		return model.POI{}, err
	}
	s.log.DebugContext(mylog.WithGUID(ctx, p.GUID), "poi stored", "kind", p.Kind, "cells", cells)
	return p, nil
}

// DeletePOI removes guid and publishes the change. store.ErrNotFound is
// returned for unknown guids.
func (s *Service) DeletePOI(ctx context.Context, guid string) (model.POI, error) {
	p, err := s.deleteLocal(ctx, guid)
	if err != nil {
		return model.POI{}, err
	}
	s.events.Publish(events.Delete(guid, s.seq.Add(1), s.source))
	return p, nil
}

func (s *Service) deleteLocal(ctx context.Context, guid string) (model.POI, error) {
	p, err := s.store.Delete(ctx, guid)
	if err != nil {
		return model.POI{}, fmt.Errorf("delete poi %s: %w", guid, err)
	}
	if err := s.touch(ctx, s.gymCellKey(p)); err != nil {
		return model.POI{}, err
	}
	s.log.DebugContext(mylog.WithGUID(ctx, guid), "poi deleted")
	return p, nil
}

// ApplyEvent applies a change received from another instance without
// publishing it again.
func (s *Service) ApplyEvent(ctx context.Context, ev events.Event) error {
	switch ev.Op {
	case events.OpUpsert:
		if ev.POI == nil {
			return fmt.Errorf("%w: upsert without poi", events.ErrRejected)
		}
		if _, err := s.putLocal(ctx, *ev.POI); err != nil {
			if errors.Is(err, ErrInvalid) {
				return fmt.Errorf("%w: %w", events.ErrRejected, err)
			}
			return err
		}
	case events.OpDelete:
		if _, err := s.deleteLocal(ctx, ev.GUID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	default:
		return fmt.Errorf("%w: op %q", events.ErrRejected, ev.Op)
	}
	return nil
}

// touch un-ignores the changed gym cells and drops their cached reports.
func (s *Service) touch(ctx context.Context, cells ...string) error {
	cells = uniq(cells)
	if err := s.store.Unignore(ctx, cells...); err != nil {
		return fmt.Errorf("unignore %v: %w", cells, err)
	}
	s.cache.Purge(cells...)
	return nil
}

func (s *Service) gymCellKey(p model.POI) string {
	return p.Cell(s.analyzer.Levels.GymCell).String()
}

func (s *Service) POI(ctx context.Context, guid string) (model.POI, error) {
	return s.store.Get(ctx, guid)
}

func (s *Service) POIs(ctx context.Context, bb model.BBox) ([]model.POI, error) {
	return s.store.InBounds(ctx, bb)
}

func (s *Service) ignored(ctx context.Context) (pogo.IgnoredCells, error) {
	extra, err := s.store.Ignored(ctx, model.IgnoreExtraGyms)
	if err != nil {
		return pogo.IgnoredCells{}, fmt.Errorf("ignored extra: %w", err)
	}
	missing, err := s.store.Ignored(ctx, model.IgnoreMissingGyms)
	if err != nil {
		return pogo.IgnoredCells{}, fmt.Errorf("ignored missing: %w", err)
	}
	return pogo.NewIgnoredCells(extra, missing), nil
}

// Analyze reports every gym cell touching bb that holds at least one item.
func (s *Service) Analyze(ctx context.Context, bb model.BBox) (pogo.Analysis, error) {
	cells, err := s.analyzer.Cells(bb.Rect())
	if err != nil {
		return pogo.Analysis{}, invalid(err)
	}
	reports, err := s.reports.Reports(ctx, cells)
	if err != nil {
		return pogo.Analysis{}, err
	}
	ign, err := s.ignored(ctx)
	if err != nil {
		return pogo.Analysis{}, err
	}
	return pogo.Summarize(reports, ign), nil
}

func (s *Service) Guess(ctx context.Context, bb model.BBox) (pogo.Guess, error) {
	pois, err := s.store.InBounds(ctx, bb)
	if err != nil {
		return pogo.Guess{}, err
	}
	ign, err := s.ignored(ctx)
	if err != nil {
		return pogo.Guess{}, err
	}
	return s.analyzer.GuessNewStops(bb.Rect(), pois, ign), nil
}

func (s *Service) GymCenters(ctx context.Context, bb model.BBox) ([]pogo.GymCenter, error) {
	pois, err := s.store.InBounds(ctx, bb)
	if err != nil {
		return nil, err
	}
	return s.analyzer.GymCenters(bb.Rect(), pois), nil
}

// Ignore dismisses the extra or missing gym warning of a gym cell.
func (s *Service) Ignore(ctx context.Context, kind model.IgnoreKind, key string) error {
	c, err := s2cell.ParseCell(key)
	if err != nil {
		return invalid(err)
	}
	if c.Level != s.analyzer.Levels.GymCell {
		return invalid(fmt.Errorf("cell %s is not a level %d cell", key, s.analyzer.Levels.GymCell))
	}
	if err := s.store.Ignore(ctx, kind, c.String()); err != nil {
		return fmt.Errorf("ignore %s: %w", key, err)
	}
	s.log.InfoContext(mylog.WithCell(ctx, c.String()), "cell ignored", "kind", kind)
	return nil
}

func (s *Service) Ignored(ctx context.Context, kind model.IgnoreKind) ([]string, error) {
	return s.store.Ignored(ctx, kind)
}

// Snapshot builds the storage document of everything stored.
func (s *Service) Snapshot(ctx context.Context) (exchange.Document, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return exchange.Document{}, err
	}
	ign, err := s.ignored(ctx)
	if err != nil {
		return exchange.Document{}, err
	}
	return exchange.BuildDocument(all, ign.Keys(model.IgnoreExtraGyms), ign.Keys(model.IgnoreMissingGyms)), nil
}

// ExportPOIs returns the gyms, or gyms and stops, inside bb.
func (s *Service) ExportPOIs(ctx context.Context, t exchange.ExportType, bb model.BBox) ([]model.POI, error) {
	pois, err := s.store.InBounds(ctx, bb)
	if err != nil {
		return nil, err
	}
	return exchange.Select(pois, t, bb.Rect()), nil
}

// Import loads doc. Cached reports are dropped since any cell may have changed.
func (s *Service) Import(ctx context.Context, doc exchange.Document, replace bool) (exchange.Result, error) {
	res, err := s.importer.Import(ctx, doc, replace)
	s.cache.PurgeAll()
	return res, err
}

// Reset deletes every POI and ignored cell.
func (s *Service) Reset(ctx context.Context) error {
	defer s.cache.PurgeAll()
	return s.store.Reset(ctx)
}

func uniq(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}
