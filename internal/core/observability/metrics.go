package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "overlay_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op", "result"},
	)

	storeOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poi_store_operation_duration_seconds",
			Help:    "Latency of POI store operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"driver", "op", "result"},
	)

	analysisCacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_cache_results_total",
			Help: "Gym cell analysis cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	cellsRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_cells_rendered_total",
			Help: "Cells returned to clients by kind of overlay.",
		},
		[]string{"kind"},
	)

	poiEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_events_total",
			Help: "POI change events by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)

	kafkaConsumerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_errors_total",
			Help: "Errors seen by the POI event consumer.",
		},
		[]string{"kind"},
	)

	importedPOIs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_import_items_total",
			Help: "Items processed by bulk import by outcome.",
		},
		[]string{"outcome"},
	)

	all = []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds, buildInfo,
		redisOpDuration, storeOpDuration, analysisCacheResults,
		cellsRendered, poiEvents, kafkaConsumerErrors, importedPOIs,
	}
)

func init() {
	for _, c := range all {
		_ = register(prometheus.DefaultRegisterer, c)
	}
}

var initMu sync.Mutex

// Init registers the service metrics on reg. When disabled nothing is
// registered and the observe functions keep updating unexported collectors.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	initMu.Lock()
	defer initMu.Unlock()
	for _, c := range all {
		if err := register(reg, c); err != nil {
			panic(err)
		}
	}
}

func register(reg prometheus.Registerer, c prometheus.Collector) error {
	err := reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &are) {
		return err
	}
	return nil
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	redisOpDuration.WithLabelValues(op, result(err)).Observe(durationSeconds)
}

func ObserveStoreOp(driver, op string, err error, durationSeconds float64) {
	storeOpDuration.WithLabelValues(driver, op, result(err)).Observe(durationSeconds)
}

func IncAnalysisCacheHit()  { analysisCacheResults.WithLabelValues("hit").Inc() }
func IncAnalysisCacheMiss() { analysisCacheResults.WithLabelValues("miss").Inc() }

func AddCellsRendered(kind string, n int) {
	if n <= 0 {
		return
	}
	cellsRendered.WithLabelValues(kind).Add(float64(n))
}

// IncPOIEvent counts published ("out") and consumed ("in") events.
func IncPOIEvent(direction, outcome string) {
	poiEvents.WithLabelValues(direction, outcome).Inc()
}

func IncKafkaConsumerError(kind string) {
	kafkaConsumerErrors.WithLabelValues(kind).Inc()
}

func AddImported(outcome string, n int) {
	if n <= 0 {
		return
	}
	importedPOIs.WithLabelValues(outcome).Add(float64(n))
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
