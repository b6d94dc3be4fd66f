package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics_Exposition(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition("approved", 2, 300000)
	m.IncRefusal("approve", "missing_bank_details")
	m.IncBatch(ResultSuccess)
	m.IncEvent("batch.generated", ResultError)
	m.ObserveExport("xlsx", "", 20*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "GET /api/v1/settlements", 200, 5*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	for _, want := range []string{
		`society_settlement_transitions_total{to="approved"} 2`,
		`society_settlement_transitioned_paise_total{to="approved"} 300000`,
		`society_settlement_refusals_total{action="approve",reason="missing_bank_details"} 1`,
		`society_batches_generated_total{result="success"} 1`,
		`society_events_published_total{kind="batch.generated",result="error"} 1`,
		`society_export_total{format="xlsx",result="success"} 1`,
		`society_http_requests_total{code="200",method="GET",route="GET /api/v1/settlements"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTransition("approved", 1, 1)
	m.IncRefusal("approve", "")
	m.IncBatch(ResultError)
	m.IncEvent("x", ResultSuccess)
	m.ObserveExport("", "", 0)
	m.ObserveHTTP("GET", "", 500, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil metrics handler code = %d, want 404", rec.Code)
	}
}
