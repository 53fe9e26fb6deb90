package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type EventsCfg struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	GroupID   string
	Source    string
	QueueSize int
}

type Config struct {
	Addr              string
	LogLevel          string
	LogConsole        bool
	LogSampleN        int
	MetricsEnabled    bool
	MetricsAddr       string
	StoreDriver       string
	RedisAddr         string
	CacheOpTimeout    time.Duration
	AnalysisCacheSize int
	GridMaxCells      int
	GymCellLevel      int
	PoiCellLevel      int
	GymCenterLevel    int
	SettingsFile      string
	ImportWorkers     int
	Events            EventsCfg
}

func FromEnv() Config {
	host, _ := os.Hostname()
	return Config{
		Addr:              getenv("ADDR", ":8090"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogConsole:        getbool("LOG_CONSOLE", false),
		LogSampleN:        getint("LOG_SAMPLE_N", 0),
		MetricsEnabled:    getbool("METRICS_ENABLED", true),
		MetricsAddr:       getenv("METRICS_ADDR", ""),
		StoreDriver:       strings.ToLower(getenv("STORE_DRIVER", "memory")),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		CacheOpTimeout:    getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		AnalysisCacheSize: getint("ANALYSIS_CACHE_SIZE", 4096),
		GridMaxCells:      getint("GRID_MAX_CELLS", 20000),
		GymCellLevel:      getint("GYM_CELL_LEVEL", 14),
		PoiCellLevel:      getint("POI_CELL_LEVEL", 17),
		GymCenterLevel:    getint("GYM_CENTER_LEVEL", 20),
		SettingsFile:      getenv("SETTINGS_FILE", ""),
		ImportWorkers:     getint("IMPORT_WORKERS", 8),
		Events: EventsCfg{
			Enabled:   getbool("EVENTS_ENABLED", false),
			Brokers:   splitCSV(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:     getenv("KAFKA_TOPIC", "pogo-pois"),
			GroupID:   getenv("KAFKA_GROUP_ID", "pogo-overlay"),
			Source:    getenv("EVENTS_SOURCE", host),
			QueueSize: getint("EVENTS_QUEUE", 1024),
		},
	}
}

// Validate rejects combinations the server cannot run with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case "memory", "redis":
	default:
		return fmt.Errorf("STORE_DRIVER must be memory or redis, got %q", c.StoreDriver)
	}
	if !(0 <= c.GymCellLevel && c.GymCellLevel < c.PoiCellLevel && c.PoiCellLevel < c.GymCenterLevel && c.GymCenterLevel <= 30) {
		return fmt.Errorf("cell levels must satisfy 0 <= gym(%d) < poi(%d) < center(%d) <= 30",
			c.GymCellLevel, c.PoiCellLevel, c.GymCenterLevel)
	}
	if c.GridMaxCells <= 0 {
		return fmt.Errorf("GRID_MAX_CELLS must be positive")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("EVENTS_ENABLED requires KAFKA_BROKERS")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if x := strings.TrimSpace(p); x != "" {
			out = append(out, x)
		}
	}
	return out
}
