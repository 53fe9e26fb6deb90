// Package featurestore keeps POI documents in redis as JSON.
package featurestore

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/keys"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/cache/redisstore"
	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
)

type FeatureStore interface {
	MGetPOIs(ctx context.Context, guids []string) (map[string]model.POI, error)

	PutPOIs(ctx context.Context, pois []model.POI) error

	DeletePOIs(ctx context.Context, guids ...string) error
}

type redisFeatureStore struct {
	cli *redisstore.Client
}

func NewRedisStore(cli *redisstore.Client) FeatureStore {
	return &redisFeatureStore{cli: cli}
}

func (s *redisFeatureStore) MGetPOIs(ctx context.Context, guids []string) (map[string]model.POI, error) {
	if len(guids) == 0 {
		return map[string]model.POI{}, nil
	}

	ks := make([]string, len(guids))
	for i, id := range guids {
		ks[i] = keys.PoiKey(id)
	}

	raw, err := s.cli.MGet(ctx, ks)
	if err != nil {
		return nil, fmt.Errorf("featurestore redis MGET %d keys: %w", len(ks), err)
	}

	out := make(map[string]model.POI, len(raw))
	for i, id := range guids {
		body, ok := raw[ks[i]]
		if !ok {
			continue
		}
		var p model.POI
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("featurestore decode %q: %w", id, err)
		}
		out[id] = p
	}
	return out, nil
}

func (s *redisFeatureStore) PutPOIs(ctx context.Context, pois []model.POI) error {
	if len(pois) == 0 {
		return nil
	}
	kv := make(map[string][]byte, len(pois))
	for _, p := range pois {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("featurestore encode %q: %w", p.GUID, err)
		}
		kv[keys.PoiKey(p.GUID)] = body
	}
	if err := s.cli.MSetWithTTL(ctx, kv, 0); err != nil {
		return fmt.Errorf("featurestore put %d pois: %w", len(pois), err)
	}
	return nil
}

func (s *redisFeatureStore) DeletePOIs(ctx context.Context, guids ...string) error {
	if len(guids) == 0 {
		return nil
	}
	ks := make([]string, len(guids))
	for i, id := range guids {
		ks[i] = keys.PoiKey(id)
	}
	if err := s.cli.Del(ctx, ks...); err != nil {
		return fmt.Errorf("featurestore delete %d pois: %w", len(ks), err)
	}
	return nil
}
