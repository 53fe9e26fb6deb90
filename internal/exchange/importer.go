package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
)

const DefaultImportWorkers = 8

// Importer validates document items on a worker pool and writes the
// accepted ones to the store in one batch.
type Importer struct {
	Store     store.Store
	Workers   int
	CellLevel int
	Log       *slog.Logger
}

// Result summarises an import. Cells lists the gym-level cells that received
// at least one POI. Existing counts items skipped on a merge because their
// guid was already stored.
type Result struct {
	Imported int         `json:"imported"`
	Existing int         `json:"existing"`
	Ignored  int         `json:"ignored"`
	Rejected []Rejection `json:"rejected"`
	Cells    []string    `json:"cells"`
}

type importTask struct {
	e    entry
	lvl  int
	err  error
	cell string
	wg   *sync.WaitGroup
}

func (t *importTask) run() {
	defer t.wg.Done()
	if t.e.poi.GUID == "" {
		t.e.poi.GUID = t.e.key
	}
	if t.e.poi.GUID == "" {
		t.err = fmt.Errorf("item has no guid")
		return
	}
	if err := t.e.poi.Validate(); err != nil {
		t.err = err
		return
	}
	t.cell = t.e.poi.Cell(t.lvl).String()
}

// Import writes doc into the store. When replace is set the store is reset
// first; otherwise items whose guid is already stored are kept as stored.
// Cells that receive a POI are un-ignored, then the ignored lists of doc are
// merged into the store's lists. Items without a guid take their section key.
func (im *Importer) Import(ctx context.Context, doc Document, replace bool) (Result, error) {
	log := im.Log
	if log == nil {
		log = slog.Default()
	}
	workers := im.Workers
	if workers <= 0 {
		workers = DefaultImportWorkers
	}
	start := time.Now()

	pool, err := ants.NewPoolWithFunc(workers, func(arg any) {
		arg.(*importTask).run()
	}, ants.WithExpiryDuration(60*time.Second), ants.WithPreAlloc(true))
	if err != nil {
		return Result{}, fmt.Errorf("import pool: %w", err)
	}
	defer pool.Release()

	entries := doc.entries()
	tasks := make([]*importTask, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return Result{}, err
		}
		tasks[i] = &importTask{e: e, lvl: im.CellLevel, wg: &wg}
		wg.Add(1)
		if err := pool.Invoke(tasks[i]); err != nil {
			wg.Done()
			wg.Wait()
			return Result{}, fmt.Errorf("import pool invoke: %w", err)
		}
	}
	wg.Wait()

	res := Result{Rejected: []Rejection{}, Cells: []string{}}
	seen := map[string]int{}
	cellOf := map[string]string{}
	valid := make([]model.POI, 0, len(tasks))
	for _, t := range tasks {
		if t.err != nil {
			res.Rejected = append(res.Rejected, Rejection{Section: t.e.section, Key: t.e.key, Reason: t.err.Error()})
			continue
		}
		// a guid listed in two sections keeps the last one read
		if idx, dup := seen[t.e.poi.GUID]; dup {
			valid[idx] = t.e.poi
		} else {
			seen[t.e.poi.GUID] = len(valid)
			valid = append(valid, t.e.poi)
		}
		cellOf[t.e.poi.GUID] = t.cell
	}

	if replace {
		if err := im.Store.Reset(ctx); err != nil {
			return Result{}, fmt.Errorf("reset before import: %w", err)
		}
	} else {
		kept := valid[:0]
		for _, p := range valid {
			_, err := im.Store.Get(ctx, p.GUID)
			switch {
			case err == nil:
				res.Existing++
				continue
			case !errors.Is(err, store.ErrNotFound):
				return Result{}, fmt.Errorf("import lookup %s: %w", p.GUID, err)
			}
			kept = append(kept, p)
		}
		valid = kept
	}

	cells := map[string]struct{}{}
	for _, p := range valid {
		cells[cellOf[p.GUID]] = struct{}{}
	}
	for c := range cells {
		res.Cells = append(res.Cells, c)
	}
	sort.Strings(res.Cells)

	if err := im.Store.PutMany(ctx, valid); err != nil {
		return Result{}, fmt.Errorf("import pois: %w", err)
	}
	if err := im.Store.Unignore(ctx, res.Cells...); err != nil {
		return Result{}, fmt.Errorf("import unignore: %w", err)
	}
	for _, kind := range []model.IgnoreKind{model.IgnoreExtraGyms, model.IgnoreMissingGyms} {
		for _, key := range doc.IgnoredKeys(kind) {
			if _, err := s2cell.ParseCell(key); err != nil {
				res.Rejected = append(res.Rejected, Rejection{Section: ignoredSection(kind), Key: key, Reason: err.Error()})
				continue
			}
			if err := im.Store.Ignore(ctx, kind, key); err != nil {
				return Result{}, fmt.Errorf("import ignored cells: %w", err)
			}
			res.Ignored++
		}
	}

	res.Imported = len(valid)

	observability.AddImported("ok", res.Imported)
	observability.AddImported("rejected", len(res.Rejected))
	log.Info("import finished",
		"imported", res.Imported,
		"rejected", len(res.Rejected),
		"existing", res.Existing,
		"ignored", res.Ignored,
		"cells", len(res.Cells),
		"replace", replace,
		"took", time.Since(start))
	return res, nil
}

func ignoredSection(kind model.IgnoreKind) string {
	if kind == model.IgnoreMissingGyms {
		return "ignoredCellsMissingGyms"
	}
	return "ignoredCellsExtraGyms"
}
