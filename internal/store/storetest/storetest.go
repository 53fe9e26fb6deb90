// Package storetest is a conformance suite run against every store driver.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
)

// Fixture POIs around Stockholm plus one in New York.
var (
	Fountain = model.POI{GUID: "a.16", Lat: 59.3293, Lng: 18.0686, Name: "Fountain", Kind: model.KindGym, IsEx: true}
	Statue   = model.POI{GUID: "b.16", Lat: 59.3301, Lng: 18.0702, Name: "Statue", Kind: model.KindPokestop}
	Mural    = model.POI{GUID: "c.16", Lat: 59.3420, Lng: 18.0500, Name: "Mural", Kind: model.KindNew}
	Bench    = model.POI{GUID: "d.16", Lat: 59.3295, Lng: 18.0689, Kind: model.KindNotPogo}
	Faraway  = model.POI{GUID: "z.16", Lat: 40.7128, Lng: -74.0060, Name: "Far", Kind: model.KindGym}
)

func guids(pois []model.POI) []string {
	out := make([]string, 0, len(pois))
	for _, p := range pois {
		out = append(out, p.GUID)
	}
	return out
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func seed(t *testing.T, s store.Store) {
	t.Helper()
	if err := s.PutMany(ctxT(t), []model.POI{Fountain, Statue, Mural, Bench, Faraway}); err != nil {
		t.Fatalf("PutMany: %v", err)
	}
}

// Run exercises s against the Store contract. newStore must return an empty
// store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("PutGetReplaceDelete", func(t *testing.T) {
		s := newStore(t)
		ctx := ctxT(t)

		prev, err := s.Put(ctx, Fountain)
		if err != nil || prev != nil {
			t.Fatalf("first Put prev=%v err=%v", prev, err)
		}
		got, err := s.Get(ctx, Fountain.GUID)
		if err != nil || got != Fountain {
			t.Fatalf("Get got=%+v err=%v", got, err)
		}

		moved := Fountain
		moved.Lat, moved.Kind = 59.3300, model.KindPokestop
		prev, err = s.Put(ctx, moved)
		if err != nil || prev == nil || *prev != Fountain {
			t.Fatalf("replace Put prev=%v err=%v", prev, err)
		}
		all, _ := s.All(ctx)
		if len(all) != 1 || all[0] != moved {
			t.Fatalf("All after replace: %+v", all)
		}

		del, err := s.Delete(ctx, Fountain.GUID)
		if err != nil || del != moved {
			t.Fatalf("Delete got=%+v err=%v", del, err)
		}
		if _, err := s.Get(ctx, Fountain.GUID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get after delete err=%v", err)
		}
		if _, err := s.Delete(ctx, Fountain.GUID); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("second Delete err=%v", err)
		}
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		s := newStore(t)
		ctx := ctxT(t)
		if _, err := s.Put(ctx, model.POI{Lat: 1, Lng: 1, Kind: model.KindGym}); err == nil {
			t.Fatalf("expected error for missing guid")
		}
		bad := []model.POI{Fountain, {GUID: "x", Lat: 100, Lng: 0, Kind: model.KindGym}}
		if err := s.PutMany(ctx, bad); err == nil {
			t.Fatalf("expected error for out of range latitude")
		}
		if all, _ := s.All(ctx); len(all) != 0 {
			t.Fatalf("PutMany must validate before writing, stored %v", guids(all))
		}
	})

	t.Run("InBoundsAndAll", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)
		ctx := ctxT(t)

		bb := model.BBox{X1: 18.06, Y1: 59.32, X2: 18.08, Y2: 59.335, SRID: "EPSG:4326"}
		got, err := s.InBounds(ctx, bb)
		if err != nil {
			t.Fatalf("InBounds: %v", err)
		}
		if want := []string{"a.16", "b.16", "d.16"}; !reflect.DeepEqual(guids(got), want) {
			t.Fatalf("InBounds=%v want %v", guids(got), want)
		}

		empty, err := s.InBounds(ctx, model.BBox{X1: 0, Y1: 0, X2: 0.01, Y2: 0.01})
		if err != nil || len(empty) != 0 {
			t.Fatalf("empty InBounds got=%v err=%v", guids(empty), err)
		}

		all, err := s.All(ctx)
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if want := []string{"a.16", "b.16", "c.16", "d.16", "z.16"}; !reflect.DeepEqual(guids(all), want) {
			t.Fatalf("All=%v want %v", guids(all), want)
		}
	})

	t.Run("CellItems", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)
		ctx := ctxT(t)

		c14 := Fountain.Cell(14)
		got, err := s.CellItems(ctx, c14)
		if err != nil {
			t.Fatalf("CellItems: %v", err)
		}
		want := []string{}
		for _, p := range []model.POI{Fountain, Statue, Mural, Bench, Faraway} {
			if p.Cell(14) == c14 {
				want = append(want, p.GUID)
			}
		}
		if !reflect.DeepEqual(guids(got), want) {
			t.Fatalf("CellItems(%s)=%v want %v", c14, guids(got), want)
		}

		c17 := Fountain.Cell(17)
		got, err = s.CellItems(ctx, c17)
		if err != nil || len(got) == 0 || got[0].GUID != Fountain.GUID {
			t.Fatalf("CellItems(%s)=%v err=%v", c17, guids(got), err)
		}

		// a level without a dedicated index
		c12 := Fountain.Cell(12)
		got, err = s.CellItems(ctx, c12)
		if err != nil || len(got) < len(want) {
			t.Fatalf("CellItems(%s)=%v err=%v", c12, guids(got), err)
		}

		if got, _ := s.CellItems(ctx, s2cell.CellFromFaceIJ(0, 0, 0, 14)); len(got) != 0 {
			t.Fatalf("expected empty cell, got %v", guids(got))
		}

		moved := Fountain
		moved.Lat, moved.Lng = Faraway.Lat, Faraway.Lng
		if _, err := s.Put(ctx, moved); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, _ = s.CellItems(ctx, c14)
		for _, p := range got {
			if p.GUID == Fountain.GUID {
				t.Fatalf("moved poi still listed in its old cell")
			}
		}
	})

	t.Run("IgnoredCells", func(t *testing.T) {
		s := newStore(t)
		ctx := ctxT(t)
		for _, c := range []string{"F2ij[2944,6179]@14", "F2ij[2944,6178]@14"} {
			if err := s.Ignore(ctx, model.IgnoreExtraGyms, c); err != nil {
				t.Fatalf("Ignore: %v", err)
			}
		}
		if err := s.Ignore(ctx, model.IgnoreMissingGyms, "F2ij[2944,6179]@14"); err != nil {
			t.Fatalf("Ignore: %v", err)
		}

		extra, err := s.Ignored(ctx, model.IgnoreExtraGyms)
		if err != nil {
			t.Fatalf("Ignored: %v", err)
		}
		if want := []string{"F2ij[2944,6178]@14", "F2ij[2944,6179]@14"}; !reflect.DeepEqual(extra, want) {
			t.Fatalf("extra=%v want %v", extra, want)
		}

		if err := s.Unignore(ctx, "F2ij[2944,6179]@14"); err != nil {
			t.Fatalf("Unignore: %v", err)
		}
		extra, _ = s.Ignored(ctx, model.IgnoreExtraGyms)
		missing, _ := s.Ignored(ctx, model.IgnoreMissingGyms)
		if !reflect.DeepEqual(extra, []string{"F2ij[2944,6178]@14"}) || len(missing) != 0 {
			t.Fatalf("after Unignore extra=%v missing=%v", extra, missing)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)
		ctx := ctxT(t)
		if err := s.Ignore(ctx, model.IgnoreExtraGyms, "F0ij[0,0]@14"); err != nil {
			t.Fatalf("Ignore: %v", err)
		}
		if err := s.Reset(ctx); err != nil {
			t.Fatalf("Reset: %v", err)
		}
		all, _ := s.All(ctx)
		extra, _ := s.Ignored(ctx, model.IgnoreExtraGyms)
		if len(all) != 0 || len(extra) != 0 {
			t.Fatalf("after Reset all=%v extra=%v", guids(all), extra)
		}
		if _, err := s.InBounds(ctx, model.BBox{X1: 18, Y1: 59, X2: 18.2, Y2: 59.4}); err != nil {
			t.Fatalf("InBounds after reset: %v", err)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := s.Put(ctx, Fountain); err == nil {
			t.Fatalf("expected error on Put with canceled context")
		}
		if _, err := s.All(ctx); err == nil {
			t.Fatalf("expected error on All with canceled context")
		}
	})
}
