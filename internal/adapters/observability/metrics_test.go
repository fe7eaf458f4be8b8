package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record samples so the vectors are non-empty
	observability.ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	observability.ObserveOperation("fetch", "fulfilled", "none", 5*time.Millisecond)
	observability.ObserveOperation("create", "rejected", "validation", 0)

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"storefront_http_requests_total",
		`storefront_review_operations_total{class="create",kind="validation",outcome="rejected"}`,
		"storefront_review_operation_duration_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output", want)
		}
	}
}

func TestMetricsServerServesRegistry(t *testing.T) {
	reg := observability.InitRegistry()
	observability.SetActiveSessions(3)

	srv := observability.MetricsServer(":0", reg)
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	if out := rr.Body.String(); !strings.Contains(out, "storefront_active_sessions 3") {
		t.Fatalf("expected storefront collectors on the metrics listener, got:\n%s", out)
	}
}
