package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_counters(t *testing.T) {
	m := New()
	m.IncCycles()
	m.IncCycles()
	m.AddLayersPosted(3)
	m.IncCommitFailures("overflow")
	m.IncEventsPosted("blank")

	if got := testutil.ToFloat64(m.cyclesTotal); got != 2 {
		t.Errorf("cycles: got %v", got)
	}
	if got := testutil.ToFloat64(m.layersPostedTotal); got != 3 {
		t.Errorf("layers posted: got %v", got)
	}
	if got := testutil.ToFloat64(m.commitFailuresTotal.WithLabelValues("overflow")); got != 1 {
		t.Errorf("commit failures: got %v", got)
	}
	if got := testutil.ToFloat64(m.eventsPostedTotal.WithLabelValues("blank")); got != 1 {
		t.Errorf("events posted: got %v", got)
	}
}

func TestMetrics_SetAnalyzerState(t *testing.T) {
	m := New()
	m.SetAnalyzerState(true, false, true)
	if testutil.ToFloat64(m.videoPlaying) != 1 || testutil.ToFloat64(m.videoExtendedMode) != 0 || testutil.ToFloat64(m.blankDevice) != 1 {
		t.Error("unexpected gauge values")
	}
}

func TestMetrics_Handler_updates_gauges(t *testing.T) {
	m := New()
	called := false
	h := m.Handler(func() {
		called = true
		m.SetAnalyzerState(true, true, false)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !called {
		t.Error("updateGauges should run before scrape")
	}
	if !strings.Contains(rec.Body.String(), "hwc_video_extended_mode 1") {
		t.Errorf("expected extended mode gauge in scrape:\n%s", rec.Body.String())
	}
}

func TestRequestMiddleware_counts_errors(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/events/blank", nil))

	if testutil.ToFloat64(m.requestsTotal) != 1 || testutil.ToFloat64(m.errorsTotal) != 1 {
		t.Error("expected one request and one error")
	}
}

func TestRequestMiddleware_accepted_is_not_an_error(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/events/video", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/state", nil))

	if testutil.ToFloat64(m.requestsTotal) != 2 || testutil.ToFloat64(m.errorsTotal) != 0 {
		t.Error("expected two requests and no errors")
	}
}

func TestRequestMiddleware_nil_metrics(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	RequestMiddleware(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected pass-through, got %d", rec.Code)
	}
}
