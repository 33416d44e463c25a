package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddlewareCountsRequestsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/anchors/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for _, path := range []string{"/api/anchors/1", "/api/anchors/2", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `signchain_http_requests_total{method="GET",path="/api/anchors/:id",status="204"} 2`)
	assert.Contains(t, body, `signchain_http_requests_total{method="GET",path="unmatched",status="404"} 1`)
	assert.Contains(t, body, "signchain_http_in_flight_requests 0")
}

func TestDomainCounters(t *testing.T) {
	m := New()

	m.RecordRecovery("fenced")
	m.RecordRecovery("")
	m.RecordUpload(nil)
	m.RecordUpload(errors.New("boom"))
	m.RecordAnchor("simulated", nil)
	m.RecordPages(3)

	body := scrape(t, m)
	assert.Contains(t, body, `signchain_contract_recovery_total{source="fenced"} 1`)
	assert.Contains(t, body, `signchain_contract_recovery_total{source="unknown"} 1`)
	assert.Contains(t, body, `signchain_storage_uploads_total{status="ok"} 1`)
	assert.Contains(t, body, `signchain_storage_uploads_total{status="error"} 1`)
	assert.Contains(t, body, `signchain_ledger_anchors_total{mode="simulated",status="ok"} 1`)
	assert.Contains(t, body, "signchain_pdf_pages_count 1")
	assert.Contains(t, body, "signchain_pdf_pages_sum 3")
}
