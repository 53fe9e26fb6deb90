// Package events carries POI changes between overlay instances over Kafka.
package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/model"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

type Event struct {
	Version int        `json:"version"`
	Op      string     `json:"op"`
	GUID    string     `json:"guid"`
	POI     *model.POI `json:"poi,omitempty"`
	// Seq increases per guid at the source; stale or repeated events are skipped.
	Seq    uint64    `json:"seq"`
	Source string    `json:"source,omitempty"`
	TS     time.Time `json:"ts"`
}

func Upsert(p model.POI, seq uint64, source string) Event {
	return Event{Version: 1, Op: OpUpsert, GUID: p.GUID, POI: &p, Seq: seq, Source: source, TS: time.Now().UTC()}
}

func Delete(guid string, seq uint64, source string) Event {
	return Event{Version: 1, Op: OpDelete, GUID: guid, Seq: seq, Source: source, TS: time.Now().UTC()}
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	if strings.TrimSpace(e.GUID) == "" {
		return fmt.Errorf("guid is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	switch e.Op {
	case OpUpsert:
		if e.POI == nil {
			return fmt.Errorf("upsert requires poi")
		}
		if e.POI.GUID != e.GUID {
			return fmt.Errorf("poi.guid %q does not match guid %q", e.POI.GUID, e.GUID)
		}
		if err := e.POI.Validate(); err != nil {
			return fmt.Errorf("poi: %w", err)
		}
	case OpDelete:
		if e.POI != nil {
			return fmt.Errorf("delete must not carry poi")
		}
	default:
		return fmt.Errorf("op must be upsert|delete")
	}
	return nil
}
