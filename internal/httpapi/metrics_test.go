package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"cpmanager/internal/manager"
)

func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := NewMux(&mockService{})
	do(t, r, http.MethodGet, "/admin/state", "")
	body := scrape(t)
	if !bytes.Contains(body, []byte(`cpmanager_http_requests_total{method="GET",path="/admin/state",status="200"}`)) {
		t.Fatalf("request counter for /admin/state not found")
	}
}

func TestMetricsMiddleware_UnroutedFallsBackToPath(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	MetricsMiddleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/plain", "GET", "418")); got != 1 {
		t.Fatalf("counter=%v", got)
	}
}

func TestRejectedCounter(t *testing.T) {
	before := testutil.ToFloat64(adminRejectedTotal.WithLabelValues("shutdown"))
	svc := &mockService{errs: map[string]error{"shutdown": fmt.Errorf("shutdown: %w", manager.ErrInvalidTransition)}}
	do(t, NewMux(svc), http.MethodPost, "/admin/shutdown", "")
	if got := testutil.ToFloat64(adminRejectedTotal.WithLabelValues("shutdown")); got != before+1 {
		t.Fatalf("rejected counter=%v want %v", got, before+1)
	}
}

func TestItoa(t *testing.T) {
	for n, want := range map[int]string{0: "0", 7: "7", 204: "204", 503: "503"} {
		if got := itoa(n); got != want {
			t.Fatalf("itoa(%d)=%q", n, got)
		}
	}
}
