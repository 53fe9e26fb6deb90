package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ExposeBuildInfo("test")
	ObserveHTTP("GET", "/cells", 200, 0.001)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "overlay_build_info") || !strings.Contains(body, "http_requests_total") {
		t.Fatalf("metrics payload did not contain expected metric names; got:\n%s", body)
	}
}

func TestInit_CustomRegistry_IdempotentAndLabelled(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	Init(reg, true)

	ObserveStoreOp("memory", "put", nil, 0.0001)
	ObserveStoreOp("redis", "get", errors.New("boom"), 0.002)
	ObserveCacheOp("smembers", nil, 0.001)
	IncAnalysisCacheHit()
	IncAnalysisCacheMiss()
	AddCellsRendered("grid", 12)
	AddCellsRendered("grid", 0)
	IncPOIEvent("in", "applied")
	IncKafkaConsumerError("decode")
	AddImported("ok", 3)

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()

	for _, s := range []string{
		`poi_store_operation_duration_seconds_count{driver="memory",op="put",result="ok"}`,
		`poi_store_operation_duration_seconds_count{driver="redis",op="get",result="error"}`,
		`redis_operation_duration_seconds_count{op="smembers",result="ok"}`,
		`analysis_cache_results_total{outcome="hit"}`,
		`overlay_cells_rendered_total{kind="grid"}`,
		`poi_events_total{direction="in",outcome="applied"}`,
		`kafka_consumer_errors_total{kind="decode"}`,
		`poi_import_items_total{outcome="ok"}`,
	} {
		if !strings.Contains(body, s) {
			t.Fatalf("expected metrics to contain %q;\n---\n%s", s, body)
		}
	}
}

func TestInit_DisabledRegistersNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, false)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 0 {
		t.Fatalf("expected empty registry, got %d families", len(mfs))
	}
}
