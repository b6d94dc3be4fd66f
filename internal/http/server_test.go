package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"society/internal/auth"
	"society/internal/core"
	"society/internal/ledger/memory"
	"society/internal/log"
	"society/internal/metrics"
	"society/internal/services"
)

var testNow = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

var testSecret = []byte("test-secret")

type serverOption func(*Deps)

func withJWT(d *Deps) {
	d.Auth = auth.NewMiddleware(testSecret, auth.NewDefaultPolicy(PublicPaths, []string{"/static/"}))
}

func newTestServer(t *testing.T, opts ...serverOption) *Server {
	t.Helper()
	records, err := memory.DefaultRecords()
	if err != nil {
		t.Fatalf("DefaultRecords() error: %v", err)
	}
	store := memory.New(records)
	m := metrics.New(prometheus.NewRegistry())
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard

	deps := Deps{
		Settlements: services.NewSettlementService(store, nil, m, services.SettlementOptions{
			Now: func() time.Time { return testNow },
		}),
		Dashboard: services.NewDashboardService(store, time.Minute),
		Auth: auth.NewDemoMiddleware(
			auth.Identity{Subject: "U004", MemberID: "U004", FlatNo: "A-404", Role: core.RoleAccountant},
			auth.NewDefaultPolicy(PublicPaths, []string{"/static/"}),
		),
		Metrics: m,
		Logger:  log.New(cfg),
		Now:     func() time.Time { return testNow },
	}
	for _, o := range opts {
		o(&deps)
	}
	return NewServer(":0", deps)
}

func do(t *testing.T, srv *Server, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func view(month string, ids ...string) map[string]any {
	if ids == nil {
		ids = []string{}
	}
	return map[string]any{"month": month, "tab": "pending", "selected": ids}
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Society Finance") {
		t.Fatalf("index body missing heading")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/static/app.js"} {
		rr := do(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestReadyzReportsFailure(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) {
		d.Ready = func(context.Context) error { return errors.New("store down") }
	})
	if rr := do(t, srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d", rr.Code)
	}
}

func TestApproveWorkflow(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/v1/settlements/approve", view("2026-01", "SET002"))
	if rr.Code != http.StatusOK {
		t.Fatalf("approve status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	if body["count"].(float64) != 1 {
		t.Errorf("count = %v", body["count"])
	}
	v := body["view"].(map[string]any)
	if v["tab"] != "approved" || len(v["selected"].([]any)) != 0 {
		t.Errorf("view after approve = %v", v)
	}

	rr = do(t, srv, http.MethodGet, "/api/v1/settlements?month=2026-01&tab=approved", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("screen status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"SET002"`) {
		t.Errorf("approved column misses SET002: %s", rr.Body.String())
	}
}

func TestSelectTogglesView(t *testing.T) {
	srv := newTestServer(t)
	selected := func(rr *httptest.ResponseRecorder) []any {
		t.Helper()
		if rr.Code != http.StatusOK {
			t.Fatalf("select status=%d body=%s", rr.Code, rr.Body.String())
		}
		return decode(t, rr)["view"].(map[string]any)["selected"].([]any)
	}

	if got := selected(do(t, srv, http.MethodPost, "/api/v1/settlements/select?id=SET002", view("2026-01"))); len(got) != 1 || got[0] != "SET002" {
		t.Errorf("toggle on = %v", got)
	}
	if got := selected(do(t, srv, http.MethodPost, "/api/v1/settlements/select?id=SET002", view("2026-01", "SET002"))); len(got) != 0 {
		t.Errorf("toggle off = %v", got)
	}
	if got := selected(do(t, srv, http.MethodPost, "/api/v1/settlements/select", view("2026-01", "SET002"))); len(got) != 4 {
		t.Errorf("select all = %v, want the 4 pending rows", got)
	}
	all := view("2026-01", "SET001", "SET002", "SET003", "SET005")
	if got := selected(do(t, srv, http.MethodPost, "/api/v1/settlements/select", all)); len(got) != 0 {
		t.Errorf("select all when all selected = %v, want cleared", got)
	}

	if rr := do(t, srv, http.MethodPost, "/api/v1/settlements/select?id=SET004", view("2026-01")); rr.Code != http.StatusNotFound {
		t.Errorf("selecting an approved row on the pending tab: status=%d", rr.Code)
	}
}

func TestSettlementRefusals(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   any
		status int
		check  string
	}{
		{"missing bank details", "/api/v1/settlements/approve", view("2026-01", "SET001", "SET002"), http.StatusUnprocessableEntity, `"SET001"`},
		{"empty selection", "/api/v1/settlements/approve", view("2026-01"), http.StatusUnprocessableEntity, "no settlements selected"},
		{"wrong column", "/api/v1/settlements/approve", view("2026-01", "SET004"), http.StatusConflict, "SET004"},
		{"reimburse pending", "/api/v1/settlements/reimburse", view("2026-01", "SET002"), http.StatusConflict, "SET002"},
		{"bad month", "/api/v1/settlements/approve", view("Jan", "SET002"), http.StatusBadRequest, "invalid month"},
		{"unknown field", "/api/v1/settlements/approve", map[string]any{"ids": []string{"SET002"}}, http.StatusBadRequest, "invalid view"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			rr := do(t, srv, http.MethodPost, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.status, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tt.check) {
				t.Errorf("body %s does not contain %q", rr.Body.String(), tt.check)
			}
		})
	}
}

func TestRefusedApproveLeavesStoreUnchanged(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/v1/settlements/approve", view("2026-01", "SET001", "SET002"))

	rr := do(t, srv, http.MethodGet, "/api/v1/settlements?month=2026-01&tab=pending", nil)
	if !strings.Contains(rr.Body.String(), `"SET002"`) {
		t.Errorf("SET002 should still be pending: %s", rr.Body.String())
	}
}

func TestValidateDoesNotChangeAnything(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, http.MethodPost, "/api/v1/settlements/validate?to=approved", view("2026-01", "SET002", "SET003"))
	if rr.Code != http.StatusOK {
		t.Fatalf("validate status=%d body=%s", rr.Code, rr.Body.String())
	}
	if body := decode(t, rr); body["valid"] != true || body["count"].(float64) != 2 {
		t.Errorf("validate body = %v", body)
	}

	rr = do(t, srv, http.MethodGet, "/api/v1/settlements?month=2026-01", nil)
	if !strings.Contains(rr.Body.String(), `"SET003"`) {
		t.Errorf("SET003 should still be pending: %s", rr.Body.String())
	}

	if rr := do(t, srv, http.MethodPost, "/api/v1/settlements/validate?to=pending", view("2026-01", "SET002")); rr.Code != http.StatusBadRequest {
		t.Errorf("to=pending status=%d", rr.Code)
	}
}

func TestGenerateBatchAndExport(t *testing.T) {
	srv := newTestServer(t)

	sel := map[string]any{"month": "2026-01", "tab": "approved", "selected": []string{"SET004"}}
	rr := do(t, srv, http.MethodPost, "/api/v1/settlements/batches", sel)
	if rr.Code != http.StatusCreated {
		t.Fatalf("batch status=%d body=%s", rr.Code, rr.Body.String())
	}
	batch := decode(t, rr)["batch"].(map[string]any)
	id := batch["id"].(string)
	if batch["status"] != "generated" || batch["month"] != "2026-01" {
		t.Errorf("batch = %v", batch)
	}

	rr = do(t, srv, http.MethodGet, "/api/v1/settlements/batches", nil)
	if !strings.Contains(rr.Body.String(), id) {
		t.Errorf("batch history misses %s", id)
	}

	for _, f := range []string{"csv", "xlsx", "pdf"} {
		rr := do(t, srv, http.MethodGet, "/api/v1/settlements/batches/"+id+"/export."+f, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("export %s status=%d", f, rr.Code)
		}
		cd := rr.Header().Get("Content-Disposition")
		if !strings.Contains(cd, "settlement-2026-01-"+id[:8]+"."+f) {
			t.Errorf("Content-Disposition = %q", cd)
		}
		if rr.Body.Len() == 0 {
			t.Errorf("empty %s export", f)
		}
	}

	rr = do(t, srv, http.MethodGet, "/api/v1/settlements/batches/"+id+"/export.csv", nil)
	if !strings.Contains(rr.Body.String(), "SecureGuard Services") || !strings.Contains(rr.Body.String(), "NEFT") {
		t.Errorf("csv export body = %s", rr.Body.String())
	}

	if rr := do(t, srv, http.MethodGet, "/api/v1/settlements/batches/nope/export.csv", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown batch status=%d", rr.Code)
	}

	status := "/api/v1/settlements/batches/" + id + "/status?to="
	rr = do(t, srv, http.MethodPost, status+"uploaded", nil)
	if rr.Code != http.StatusOK || decode(t, rr)["status"] != "uploaded" {
		t.Fatalf("advance to uploaded status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPost, status+"generated", nil); rr.Code != http.StatusConflict {
		t.Errorf("moving a batch back: status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, status+"sent", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown batch status: status=%d", rr.Code)
	}
}

func TestEmptyResults(t *testing.T) {
	srv := newTestServer(t)

	for _, target := range []string{
		"/api/v1/admin/revenue?year=1999&month=1",
		"/api/v1/settlements?month=1999-01",
		"/api/v1/settlements/batches",
	} {
		rr := do(t, srv, http.MethodGet, target, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", target, rr.Code)
		}
		body := decode(t, rr)
		if body["empty"] != true || body["message"] != EmptyMessage {
			t.Errorf("%s body = %v", target, body)
		}
	}
}

func TestDashboardEndpoints(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		target string
		status int
	}{
		{"/api/v1/admin/overview?year=2026&month=1", http.StatusOK},
		{"/api/v1/admin/overview?year=2026&month=1&period=year", http.StatusOK},
		{"/api/v1/admin/overview?period=decade", http.StatusBadRequest},
		{"/api/v1/admin/overview?month=13", http.StatusBadRequest},
		{"/api/v1/admin/revenue?year=abc", http.StatusBadRequest},
		{"/api/v1/me/maintenance?year=all", http.StatusOK},
		{"/api/v1/me/expenses?year=2026&month=all", http.StatusOK},
		{"/api/v1/settlements?tab=rejected", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if rr := do(t, srv, http.MethodGet, tt.target, nil); rr.Code != tt.status {
				t.Errorf("status=%d want %d body=%s", rr.Code, tt.status, rr.Body.String())
			}
		})
	}
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t, withJWT)

	token := func(role core.Role) string {
		tok, err := auth.IssueToken(testSecret, auth.Identity{Subject: "U001", MemberID: "U001", FlatNo: "A-101", Role: role}, time.Hour, time.Now())
		if err != nil {
			t.Fatalf("IssueToken() error: %v", err)
		}
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		target string
		auth   string
		status int
	}{
		{"no token", "/api/v1/settlements", "", http.StatusUnauthorized},
		{"bad token", "/api/v1/settlements", "Bearer nope", http.StatusUnauthorized},
		{"resident on settlements", "/api/v1/settlements", token(core.RoleResident), http.StatusForbidden},
		{"accountant on settlements", "/api/v1/settlements", token(core.RoleAccountant), http.StatusOK},
		{"resident on own expenses", "/api/v1/me/expenses", token(core.RoleResident), http.StatusOK},
		{"public health", "/healthz", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rr *httptest.ResponseRecorder
			if tt.auth == "" {
				rr = do(t, srv, http.MethodGet, tt.target, nil)
			} else {
				rr = do(t, srv, http.MethodGet, tt.target, nil, "Authorization", tt.auth)
			}
			if rr.Code != tt.status {
				t.Errorf("status=%d want %d", rr.Code, tt.status)
			}
		})
	}
}

func TestPersonalViewsWithoutFlat(t *testing.T) {
	srv := newTestServer(t, withJWT)
	tok, err := auth.IssueToken(testSecret, auth.Identity{Subject: "U009", Role: core.RoleResident}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}
	bearer := "Bearer " + tok

	rr := do(t, srv, http.MethodGet, "/api/v1/me/maintenance?year=all", nil, "Authorization", bearer)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("maintenance status=%d want 403 body=%s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "A-101") {
		t.Error("maintenance response leaks another flat's bills")
	}

	// member_id falls back to the subject, which owns no expenses.
	rr = do(t, srv, http.MethodGet, "/api/v1/me/expenses?month=all", nil, "Authorization", bearer)
	if rr.Code != http.StatusOK {
		t.Fatalf("expenses status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr); got["empty"] != true {
		t.Errorf("expenses for an unknown member = %v, want the empty state", got)
	}
}

func TestPathScanIsBlocked(t *testing.T) {
	srv := newTestServer(t)
	if rr := do(t, srv, http.MethodGet, "/.env", nil); rr.Code != http.StatusNotFound {
		t.Errorf("scan status=%d", rr.Code)
	}
}
