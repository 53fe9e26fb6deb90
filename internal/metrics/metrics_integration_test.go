package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/pogo-s2-overlay/internal/core/observability"
)

func assertHasMetricLine(t *testing.T, body, metric string, wantLabels ...string) {
	t.Helper()
	for _, ln := range strings.Split(body, "\n") {
		if !strings.HasPrefix(ln, metric+"{") {
			continue
		}
		ok := true
		for _, s := range wantLabels {
			if !strings.Contains(ln, s) {
				ok = false
				break
			}
		}
		if ok && (len(ln) > 0 && ln[len(ln)-1] >= '0' && ln[len(ln)-1] <= '9') {
			return
		}
	}
	t.Fatalf("expected a %s line with labels %v; got:\n%s", metric, wantLabels, body)
}

func Test_AppMetrics_CustomRegistry_Smoke(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test"}})
	observability.Init(p.Registerer(), true)
	observability.ExposeBuildInfo("test")

	start := time.Now()
	observability.ObserveHTTP("GET", "/analysis", 200, time.Since(start).Seconds())
	observability.ObserveStoreOp("memory", "in_bounds", nil, 0.001)
	observability.ObserveCacheOp("smembers", nil, 0.002)
	observability.IncAnalysisCacheHit()
	observability.IncAnalysisCacheMiss()
	observability.AddCellsRendered("grid", 12)
	observability.IncPOIEvent("out", "sent")
	observability.IncKafkaConsumerError("decode")
	observability.AddImported("ok", 3)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	mustContain := []string{
		`http_request_duration_seconds_bucket`,
		`poi_store_operation_duration_seconds_count{driver="memory",op="in_bounds",result="ok"}`,
		`redis_operation_duration_seconds_count`,
		`analysis_cache_results_total{outcome="hit"} `,
		`analysis_cache_results_total{outcome="miss"} `,
		`kafka_consumer_errors_total{kind="decode"} `,
		`overlay_build_info{version="test"} 1`,
	}
	for _, s := range mustContain {
		if !strings.Contains(body, s) {
			t.Fatalf("expected metrics to contain %q;\n---\n%s", s, body)
		}
	}

	assertHasMetricLine(t, body, "http_requests_total",
		`method="GET"`, `route="/analysis"`, `status="200"`)
	assertHasMetricLine(t, body, "overlay_cells_rendered_total", `kind="grid"`)
	assertHasMetricLine(t, body, "poi_events_total", `direction="out"`, `outcome="sent"`)
	assertHasMetricLine(t, body, "poi_import_items_total", `outcome="ok"`)
	assertHasMetricLine(t, body, "app_build_info",
		`version="test"`)
}
