// Package keys builds the redis key layout for POIs, cell indexes and the
// ignored cell lists.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	PoiPrefix  = "poi:"
	CellPrefix = "cell:"
	// AllKey is a set of every stored guid.
	AllKey = "poi:all"
)

// PoiKey is the key of a POI document. Guids that needed sanitising get a
// hash suffix.
func PoiKey(guid string) string {
	guid = strings.TrimSpace(guid)
	safe := sanitizeForKey(guid)
	if safe == guid {
		return PoiPrefix + "doc:" + safe
	}
	return fmt.Sprintf("%sdoc:%s:h=%016x", PoiPrefix, safe, xxhash.Sum64String(guid))
}

// CellKey is the key of the guid set for a cell at level. The xxhash suffix
// keeps keys unique after sanitising the canonical cell key.
func CellKey(level int, cell string) string {
	cell = strings.TrimSpace(cell)
	return fmt.Sprintf("%s%d:%s:h=%016x", CellPrefix, level, sanitizeForKey(cell), xxhash.Sum64String(cell))
}

// IgnoredKey is the set of cell keys dismissed for kind ("extra" or "missing").
func IgnoredKey(kind string) string {
	return "ignored:" + sanitizeForKey(strings.ToLower(strings.TrimSpace(kind)))
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-' || r == '.':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
