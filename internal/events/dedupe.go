package events

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

type seqDedupe struct {
	mu  sync.Mutex
	lru *lru.Cache[string, uint64]
}

func newSeqDedupe(size int) *seqDedupe {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &seqDedupe{lru: c}
}

// shouldApply reports whether seq is greater than the last seen for key and
// records it when it is. prev is the seq it replaced, zero when key was new.
// Zero seq is always applied and never recorded.
func (d *seqDedupe) shouldApply(key string, seq uint64) (prev uint64, ok bool) {
	if seq == 0 {
		return 0, true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	last, found := d.lru.Get(key)
	if found && seq <= last {
		return last, false
	}
	d.lru.Add(key, seq)
	return last, true
}

// restore rolls key back from seq to prev after a failed apply. A newer seq
// recorded in between is left alone.
func (d *seqDedupe) restore(key string, seq, prev uint64) {
	if seq == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, ok := d.lru.Get(key); !ok || cur != seq {
		return
	}
	if prev == 0 {
		d.lru.Remove(key)
		return
	}
	d.lru.Add(key, prev)
}
