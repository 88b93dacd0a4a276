package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric は指定名・ラベルのメトリクスを探す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return nil
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string)
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestRecordProcedureCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordProcedureCall("photos.list", "ok", 10*time.Millisecond)
	c.RecordProcedureCall("photos.list", "ok", 20*time.Millisecond)
	c.RecordProcedureCall("photos.create", "unauthorized", time.Millisecond)

	ok := findMetric(t, reg, "folio_procedure_calls_total", map[string]string{"path": "photos.list", "outcome": "ok"})
	if v := ok.GetCounter().GetValue(); v != 2 {
		t.Errorf("photos.list ok = %v, want 2", v)
	}
	denied := findMetric(t, reg, "folio_procedure_calls_total", map[string]string{"path": "photos.create", "outcome": "unauthorized"})
	if v := denied.GetCounter().GetValue(); v != 1 {
		t.Errorf("photos.create unauthorized = %v, want 1", v)
	}

	latency := findMetric(t, reg, "folio_procedure_duration_seconds", map[string]string{"path": "photos.list"})
	if n := latency.GetHistogram().GetSampleCount(); n != 2 {
		t.Errorf("latency sample count = %d, want 2", n)
	}
}

func TestRecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if v := findMetric(t, reg, "folio_http_status_total", map[string]string{"status_code": "200"}).GetCounter().GetValue(); v != 2 {
		t.Errorf("200 = %v, want 2", v)
	}
	if v := findMetric(t, reg, "folio_http_status_total", map[string]string{"status_code": "404"}).GetCounter().GetValue(); v != 1 {
		t.Errorf("404 = %v, want 1", v)
	}
}

func TestRecordRateLimitedAndSessionsPurged(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRateLimited("write")
	c.RecordSessionsPurged(3)
	c.RecordSessionsPurged(0)

	if v := findMetric(t, reg, "folio_rate_limited_total", map[string]string{"limit_type": "write"}).GetCounter().GetValue(); v != 1 {
		t.Errorf("rate_limited write = %v, want 1", v)
	}
	if v := findMetric(t, reg, "folio_sessions_purged_total", nil).GetCounter().GetValue(); v != 3 {
		t.Errorf("sessions_purged = %v, want 3", v)
	}
}

// TestNewCollector_DuplicateRegistrationPanics は同一レジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPStatus(201)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body, _ := io.ReadAll(w.Result().Body)
	if !strings.Contains(string(body), `folio_http_status_total{status_code="201"} 1`) {
		t.Errorf("response should contain folio_http_status_total, got:\n%s", body)
	}
}
