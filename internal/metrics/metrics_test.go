package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	RecordHTTPRequest("GET", "/api/projects", 200, 10*time.Millisecond)
	RecordLLMRequest("ideation", time.Second, true)
	RecordTreeOperation("insert", false)
	RecordFallback()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`scaffold_http_requests_total{method="GET",path="/api/projects",status="200"}`,
		`scaffold_llm_requests_total{result="success",stage="ideation"}`,
		`scaffold_tree_operations_total{op="insert",status="error"}`,
		"scaffold_skeleton_fallbacks_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
