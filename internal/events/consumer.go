package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"

	obs "github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
	mylog "github.com/mohammed-shakir/pogo-s2-overlay/internal/logger"
)

// Applier applies a remote POI change locally.
type Applier interface {
	ApplyEvent(ctx context.Context, ev Event) error
}

// ErrRejected marks events that can never be applied. They are logged and
// committed instead of being retried.
var ErrRejected = errors.New("event rejected")

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	apply  Applier
	seen   *seqDedupe

	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   []int32
}

func NewConsumer(cfg Config, logger *slog.Logger, apply Applier) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "events_consumer"),
		apply:  apply,
		seen:   newSeqDedupe(8192),
	}
}

// Start consumes until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	if c.apply == nil {
		return errors.New("events: missing applier")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{
		setup:   c.onAssign,
		cleanup: func(sarama.ConsumerGroupSession) { c.onAssign(nil) },
		process: c.ProcessOne,
	}
	c.logger.Info("poi event consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
			c.logger.Error("consumer error", "err", err)
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			c.logger.Info("poi event consumer shutting down")
			return nil
		}
	}
}

// onAssign records the partitions of the current session. A nil session
// clears them.
func (c *Consumer) onAssign(sess sarama.ConsumerGroupSession) {
	var parts []int32
	if sess != nil {
		for _, ps := range sess.Claims() {
			parts = append(parts, ps...)
		}
		sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	}
	c.assignMu.Lock()
	c.assign = parts
	c.assignMu.Unlock()
	c.assigned.Store(sess != nil)
}

// Readiness reports whether the consumer currently holds partitions.
func (c *Consumer) Readiness() (ready bool, partitions []int32) {
	if !c.assigned.Load() {
		return false, nil
	}
	c.assignMu.RLock()
	defer c.assignMu.RUnlock()
	return true, append([]int32(nil), c.assign...)
}

// ProcessOne decodes and applies a single message. Undecodable, invalid and
// stale messages return nil so the offset moves on.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()
	ctx = mylog.WithComponent(ctx, "events_consumer")
	log := c.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncKafkaConsumerError("decode")
		obs.IncPOIEvent("in", "rejected")
		log.Warn("drop undecodable event", "err", err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		obs.IncKafkaConsumerError("validate")
		obs.IncPOIEvent("in", "rejected")
		log.Warn("drop invalid event", "guid", ev.GUID, "err", err)
		return nil
	}
	if c.cfg.Source != "" && ev.Source == c.cfg.Source {
		obs.IncPOIEvent("in", "own")
		return nil
	}
	seenKey := ev.Source + "/" + ev.GUID
	prevSeq, fresh := c.seen.shouldApply(seenKey, ev.Seq)
	if !fresh {
		obs.IncPOIEvent("in", "stale")
		log.Debug("skip stale event", "guid", ev.GUID, "seq", ev.Seq)
		return nil
	}

	ctx = mylog.WithGUID(ctx, ev.GUID)
	if err := c.apply.ApplyEvent(ctx, ev); err != nil {
		if errors.Is(err, ErrRejected) {
			obs.IncPOIEvent("in", "rejected")
			log.Warn("event rejected", "guid", ev.GUID, "op", ev.Op, "err", err)
			return nil
		}
		// roll back so the redelivered message is not skipped
		c.seen.restore(seenKey, ev.Seq, prevSeq)
		obs.IncKafkaConsumerError("apply")
		obs.IncPOIEvent("in", "error")
		return fmt.Errorf("apply %s %s: %w", ev.Op, ev.GUID, err)
	}

	obs.IncPOIEvent("in", "applied")
	log.Debug("applied event", "guid", ev.GUID, "op", ev.Op, "took", time.Since(start))
	return nil
}
