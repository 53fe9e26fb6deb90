// Package analysis caches per-cell gym reports and loads missing ones from
// the store.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	obs "github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
	mylog "github.com/mohammed-shakir/pogo-s2-overlay/internal/logger"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/pogo"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

const DefaultCacheSize = 4096

// Cache holds CellReports keyed by gym cell key.
type Cache struct {
	lru *lru.Cache[string, pogo.CellReport]
	// gen changes on every purge; a load started before a purge is not stored.
	gen atomic.Uint64
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, pogo.CellReport](size)
	if err != nil {
		return nil, fmt.Errorf("analysis cache: %w", err)
	}
	return &Cache{lru: c}, nil
}

func (c *Cache) Get(key string) (pogo.CellReport, bool) {
	r, ok := c.lru.Get(key)
	if ok {
		obs.IncAnalysisCacheHit()
	} else {
		obs.IncAnalysisCacheMiss()
	}
	return r, ok
}

func (c *Cache) Add(r pogo.CellReport) {
	c.lru.Add(r.Key, r)
}

func (c *Cache) addIfCurrent(gen uint64, r pogo.CellReport) {
	if c.gen.Load() == gen {
		c.lru.Add(r.Key, r)
	}
}

// Purge drops the reports of the given cell keys.
func (c *Cache) Purge(keys ...string) {
	c.gen.Add(1)
	for _, k := range keys {
		c.lru.Remove(k)
	}
}

func (c *Cache) PurgeAll() {
	c.gen.Add(1)
	c.lru.Purge()
}

func (c *Cache) Len() int { return c.lru.Len() }

// CellSource lists the POIs of one cell.
type CellSource interface {
	CellItems(ctx context.Context, cell s2cell.Cell) ([]model.POI, error)
}

// Reporter returns cell reports, computing and caching the missing ones.
type Reporter struct {
	Cache    *Cache
	Source   CellSource
	PoiLevel int
	Log      *slog.Logger
}

func (r *Reporter) Report(ctx context.Context, cell s2cell.Cell) (pogo.CellReport, error) {
	key := cell.String()
	if rep, ok := r.Cache.Get(key); ok {
		return rep, nil
	}
	ctx = mylog.WithCell(ctx, key)
	gen := r.Cache.gen.Load()
	pois, err := r.Source.CellItems(ctx, cell)
	if err != nil {
		return pogo.CellReport{}, fmt.Errorf("cell items %s: %w", key, err)
	}
	rep := pogo.BuildReport(cell, pois, r.PoiLevel)
	r.Cache.addIfCurrent(gen, rep)
	if r.Log != nil {
		r.Log.DebugContext(ctx, "cell report computed", "items", rep.Items, "status", string(rep.Status))
	}
	return rep, nil
}

func (r *Reporter) Reports(ctx context.Context, cells []s2cell.Cell) ([]pogo.CellReport, error) {
	out := make([]pogo.CellReport, 0, len(cells))
	for _, c := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep, err := r.Report(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}
