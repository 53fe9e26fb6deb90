package store

import (
	"context"
	"errors"
	"time"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
)

// WithMetrics records the latency and outcome of every call on inner.
type WithMetrics struct {
	inner  Store
	driver string
}

var _ Store = (*WithMetrics)(nil)

func NewWithMetrics(inner Store, driver string) *WithMetrics {
	return &WithMetrics{inner: inner, driver: driver}
}

func (w *WithMetrics) observe(op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	observability.ObserveStoreOp(w.driver, op, err, time.Since(start).Seconds())
}

func (w *WithMetrics) Put(ctx context.Context, p model.POI) (*model.POI, error) {
	start := time.Now()
	prev, err := w.inner.Put(ctx, p)
	w.observe("put", start, err)
	return prev, err
}

func (w *WithMetrics) PutMany(ctx context.Context, pois []model.POI) error {
	start := time.Now()
	err := w.inner.PutMany(ctx, pois)
	w.observe("put_many", start, err)
	return err
}

func (w *WithMetrics) Get(ctx context.Context, guid string) (model.POI, error) {
	start := time.Now()
	p, err := w.inner.Get(ctx, guid)
	w.observe("get", start, err)
	return p, err
}

func (w *WithMetrics) Delete(ctx context.Context, guid string) (model.POI, error) {
	start := time.Now()
	p, err := w.inner.Delete(ctx, guid)
	w.observe("delete", start, err)
	return p, err
}

func (w *WithMetrics) InBounds(ctx context.Context, bb model.BBox) ([]model.POI, error) {
	start := time.Now()
	out, err := w.inner.InBounds(ctx, bb)
	w.observe("in_bounds", start, err)
	return out, err
}

func (w *WithMetrics) All(ctx context.Context) ([]model.POI, error) {
	start := time.Now()
	out, err := w.inner.All(ctx)
	w.observe("all", start, err)
	return out, err
}

func (w *WithMetrics) CellItems(ctx context.Context, cell s2cell.Cell) ([]model.POI, error) {
	start := time.Now()
	out, err := w.inner.CellItems(ctx, cell)
	w.observe("cell_items", start, err)
	return out, err
}

func (w *WithMetrics) Ignore(ctx context.Context, kind model.IgnoreKind, cell string) error {
	start := time.Now()
	err := w.inner.Ignore(ctx, kind, cell)
	w.observe("ignore", start, err)
	return err
}

func (w *WithMetrics) Unignore(ctx context.Context, cells ...string) error {
	start := time.Now()
	err := w.inner.Unignore(ctx, cells...)
	w.observe("unignore", start, err)
	return err
}

func (w *WithMetrics) Ignored(ctx context.Context, kind model.IgnoreKind) ([]string, error) {
	start := time.Now()
	out, err := w.inner.Ignored(ctx, kind)
	w.observe("ignored", start, err)
	return out, err
}

func (w *WithMetrics) Reset(ctx context.Context) error {
	start := time.Now()
	err := w.inner.Reset(ctx)
	w.observe("reset", start, err)
	return err
}

func (w *WithMetrics) Close() error { return w.inner.Close() }
