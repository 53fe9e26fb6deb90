package events

import "time"

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	Source              string
	QueueSize           int
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
}

func (c Config) withDefaults() Config {
	if c.Topic == "" {
		c.Topic = "pogo-pois"
	}
	if c.GroupID == "" {
		c.GroupID = "pogo-overlay"
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.Heartbeat == 0 {
		c.Heartbeat = 3 * time.Second
	}
	if c.RebalanceTimeout == 0 {
		c.RebalanceTimeout = 30 * time.Second
	}
	return c
}
