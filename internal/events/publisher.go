package events

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"

	obs "github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
)

// Sink receives POI change events. Implementations must not block.
type Sink interface {
	Publish(ev Event) bool
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(Event) bool { return false }

// Publisher queues events and feeds them to a sarama async producer. The
// queue never blocks the request path: when it is full the event is dropped.
type Publisher struct {
	topic     string
	log       *slog.Logger
	events    chan Event
	prod      sarama.AsyncProducer
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewPublisher(brokers []string, topic string, queueSize int, log *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("events: create async producer: %w", err)
	}
	return newPublisher(prod, topic, queueSize, log), nil
}

func newPublisher(prod sarama.AsyncProducer, topic string, queueSize int, log *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		topic:   topic,
		log:     log,
		events:  make(chan Event, queueSize),
		prod:    prod,
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.log.Error("events: marshal", "guid", ev.GUID, "err", err)
				obs.IncPOIEvent("out", "error")
				continue
			}
			// keyed by guid so one POI's changes stay on one partition
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.GUID),
				Value: sarama.ByteEncoder(b),
			}
			obs.IncPOIEvent("out", "sent")
		}
	}()

	go func() {
		for err := range p.prod.Errors() {
			if err != nil {
				p.log.Error("events: producer error", "err", err)
				obs.IncPOIEvent("out", "error")
			}
		}
	}()

	return p
}

// Publish queues ev and reports whether it was accepted.
func (p *Publisher) Publish(ev Event) bool {
	select {
	case p.events <- ev:
		return true
	default:
		obs.IncPOIEvent("out", "dropped")
		return false
	}
}

// Close drains the queue and closes the producer. Publish must not be called
// after Close.
func (p *Publisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.events)
		<-p.stopped
		if cerr := p.prod.Close(); cerr != nil {
			err = fmt.Errorf("events: close producer: %w", cerr)
		}
	})
	return err
}
