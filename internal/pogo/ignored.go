package pogo

import (
	"sort"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
)

// IgnoredCells holds level 14 cell keys whose extra or missing gym warning
// was dismissed.
type IgnoredCells struct {
	Extra   map[string]struct{}
	Missing map[string]struct{}
}

func NewIgnoredCells(extra, missing []string) IgnoredCells {
	ic := IgnoredCells{
		Extra:   make(map[string]struct{}, len(extra)),
		Missing: make(map[string]struct{}, len(missing)),
	}
	for _, k := range extra {
		ic.Extra[k] = struct{}{}
	}
	for _, k := range missing {
		ic.Missing[k] = struct{}{}
	}
	return ic
}

func (ic IgnoredCells) Has(kind model.IgnoreKind, key string) bool {
	var set map[string]struct{}
	switch kind {
	case model.IgnoreExtraGyms:
		set = ic.Extra
	case model.IgnoreMissingGyms:
		set = ic.Missing
	}
	_, ok := set[key]
	return ok
}

func (ic IgnoredCells) Keys(kind model.IgnoreKind) []string {
	var set map[string]struct{}
	switch kind {
	case model.IgnoreExtraGyms:
		set = ic.Extra
	case model.IgnoreMissingGyms:
		set = ic.Missing
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
