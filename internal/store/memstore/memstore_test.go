package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/s2cell"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store/storetest"
)

func TestMemStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestMemStore_ConcurrentWritersAndReaders(t *testing.T) {
	s := New()
	ctx := context.Background()
	bb := model.BBox{X1: 18, Y1: 59, X2: 18.2, Y2: 59.5}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				p := model.POI{
					GUID: string(rune('a'+w)) + "-" + string(rune('A'+i%26)) + string(rune('0'+i/26)),
					Lat:  59.3 + float64(i)*0.001,
					Lng:  18.05 + float64(w)*0.001,
					Kind: model.KindPokestop,
				}
				if _, err := s.Put(ctx, p); err != nil {
					t.Errorf("Put: %v", err)
					return
				}
				if _, err := s.InBounds(ctx, bb); err != nil {
					t.Errorf("InBounds: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 400 {
		t.Fatalf("expected 400 pois, got %d", len(all))
	}
	in, _ := s.InBounds(ctx, bb)
	if len(in) != 400 {
		t.Fatalf("expected all pois in bounds, got %d", len(in))
	}
}

func TestMemStore_IgnoreUnknownKind(t *testing.T) {
	s := New()
	if err := s.Ignore(context.Background(), model.IgnoreKind("other"), "F0ij[0,0]@14"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestMemStore_CellItemsCoversWholeCell(t *testing.T) {
	s := New()
	ctx := context.Background()
	pois := []model.POI{
		{GUID: "north", Lat: 70, Lng: 5, Kind: model.KindGym},
		{GUID: "edge", Lat: 50, Lng: 100, Kind: model.KindPokestop},
		{GUID: "south", Lat: -60, Lng: 0, Kind: model.KindPokestop},
		{GUID: "pole", Lat: -89.5, Lng: -179.5, Kind: model.KindPokestop},
	}
	for _, p := range pois {
		if _, err := s.Put(ctx, p); err != nil {
			t.Fatalf("Put %s: %v", p.GUID, err)
		}
	}

	got, err := s.CellItems(ctx, s2cell.CellFromFaceIJ(s2cell.FacePosZ, 0, 0, 0))
	if err != nil {
		t.Fatalf("CellItems: %v", err)
	}
	if len(got) != 2 || got[0].GUID != "edge" || got[1].GUID != "north" {
		t.Fatalf("face cell items = %+v", got)
	}

	polar := pois[3].Cell(14)
	got, err = s.CellItems(ctx, polar)
	if err != nil || len(got) != 1 || got[0].GUID != "pole" {
		t.Fatalf("polar cell %s items = %+v, %v", polar, got, err)
	}
}
