// Package cellindex maps cells to the guids of the POIs inside them.
package cellindex

import (
	"context"
	"fmt"
	"sort"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/keys"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/redisstore"
)

type CellIndex interface {
	Add(ctx context.Context, level int, cell, guid string) error
	Remove(ctx context.Context, level int, cell, guid string) error
	// IDs returns the sorted guids of the given cells at level.
	IDs(ctx context.Context, level int, cells ...string) ([]string, error)
}

type redisCellIndex struct {
	cli *redisstore.Client
}

func NewRedisIndex(cli *redisstore.Client) CellIndex {
	return &redisCellIndex{cli: cli}
}

func (ci *redisCellIndex) Add(ctx context.Context, level int, cell, guid string) error {
	key := keys.CellKey(level, cell)
	if err := ci.cli.SAdd(ctx, key, guid); err != nil {
		return fmt.Errorf("cellindex add %q: %w", key, err)
	}
	return nil
}

func (ci *redisCellIndex) Remove(ctx context.Context, level int, cell, guid string) error {
	key := keys.CellKey(level, cell)
	if err := ci.cli.SRem(ctx, key, guid); err != nil {
		return fmt.Errorf("cellindex remove %q: %w", key, err)
	}
	return nil
}

func (ci *redisCellIndex) IDs(ctx context.Context, level int, cells ...string) ([]string, error) {
	if len(cells) == 0 {
		return nil, nil
	}
	ks := make([]string, len(cells))
	for i, c := range cells {
		ks[i] = keys.CellKey(level, c)
	}
	ids, err := ci.cli.SUnion(ctx, ks...)
	if err != nil {
		return nil, fmt.Errorf("cellindex ids for %d cells: %w", len(cells), err)
	}
	sort.Strings(ids)
	return ids, nil
}
