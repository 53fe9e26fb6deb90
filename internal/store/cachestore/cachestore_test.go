package cachestore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/keys"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/redisstore"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
	s2mapper "github.com/mohammed-shakir/pogo-s2-overlay/internal/mapper/s2"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/store/storetest"
)

func newMini(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	cli, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })

	return cli, mr
}

func TestCacheStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		cli, _ := newMini(t)
		s, err := New(cli, nil, 17, 14)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return s
	})
}

func TestCacheStore_WithMetricsContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		cli, _ := newMini(t)
		s, err := New(cli, nil, 14, 17)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return store.NewWithMetrics(s, "redis")
	})
}

func TestCacheStore_IndexLayout(t *testing.T) {
	cli, mr := newMini(t)
	s, err := New(cli, nil, 14, 17)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if _, err := s.Put(ctx, storetest.Fountain); err != nil {
		t.Fatalf("Put: %v", err)
	}
	for _, l := range []int{14, 17} {
		k := keys.CellKey(l, storetest.Fountain.Cell(l).String())
		if ok, _ := mr.SIsMember(k, storetest.Fountain.GUID); !ok {
			t.Fatalf("guid missing from cell index %s", k)
		}
	}
	if ok, _ := mr.SIsMember(keys.AllKey, storetest.Fountain.GUID); !ok {
		t.Fatalf("guid missing from %s", keys.AllKey)
	}
	if !mr.Exists(keys.PoiKey(storetest.Fountain.GUID)) {
		t.Fatalf("document missing")
	}

	if _, err := s.Delete(ctx, storetest.Fountain.GUID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	k := keys.CellKey(14, storetest.Fountain.Cell(14).String())
	if ok, _ := mr.SIsMember(k, storetest.Fountain.GUID); ok {
		t.Fatalf("guid still indexed after delete")
	}
}

func TestCacheStore_WideBBoxFallsBackToScan(t *testing.T) {
	cli, _ := newMini(t)
	s, err := New(cli, s2mapper.NewWithLimit(4), 14, 17)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if err := s.PutMany(ctx, []model.POI{storetest.Fountain, storetest.Faraway}); err != nil {
		t.Fatalf("PutMany: %v", err)
	}
	got, err := s.InBounds(ctx, model.BBox{X1: 17, Y1: 59, X2: 19, Y2: 60})
	if err != nil {
		t.Fatalf("InBounds: %v", err)
	}
	if len(got) != 1 || got[0].GUID != storetest.Fountain.GUID {
		t.Fatalf("InBounds=%+v", got)
	}
}

func TestNew_Validation(t *testing.T) {
	cli, _ := newMini(t)
	if _, err := New(nil, nil, 14); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if _, err := New(cli, nil); err == nil {
		t.Fatalf("expected error without levels")
	}
	if _, err := New(cli, nil, 31); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}
