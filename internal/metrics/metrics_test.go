package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusBucket(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "2xx"},
		{100, "1xx"},
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{422, "4xx"},
		{429, "4xx"},
		{500, "5xx"},
	}

	for _, tt := range tests {
		if got := statusBucket(tt.code); got != tt.want {
			t.Errorf("statusBucket(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/intel/{address}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/intel/{address}", "4xx"))

	for _, addr := range []string{"0x1", "0x2"} {
		req := httptest.NewRequest(http.MethodGet, "/intel/"+addr, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/intel/{address}", "4xx"))
	if after-before != 2 {
		t.Errorf("expected 2 requests recorded under the route pattern, got %v", after-before)
	}
}

func TestPipelineHelpers(t *testing.T) {
	before := testutil.ToFloat64(UpstreamFailuresTotal.WithLabelValues("tx_count"))
	UpstreamFailuresTotal.WithLabelValues("tx_count").Inc()
	if got := testutil.ToFloat64(UpstreamFailuresTotal.WithLabelValues("tx_count")); got != before+1 {
		t.Errorf("upstream failures = %v, want %v", got, before+1)
	}

	ObservePhase("graph", time.Now().Add(-10*time.Millisecond))
	if n := testutil.CollectAndCount(PhaseDuration, "preflight_phase_duration_seconds"); n == 0 {
		t.Error("expected phase duration series")
	}

	SetIntelRecords(3, 2, 1, 4)
	if got := testutil.ToFloat64(IntelRecords.WithLabelValues("contract")); got != 2 {
		t.Errorf("contract records = %v, want 2", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	SetIntelRecords(1, 1, 0, 0)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "preflight_intel_records") {
		t.Error("expected metrics output to contain preflight_intel_records")
	}
}
