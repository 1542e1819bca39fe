package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecordGeneration(t *testing.T) {
	c := NewCollector()

	c.RecordGeneration(OutcomeSuccess, 120*time.Millisecond, map[string]int{"attended": 30, "cancelled": 5})
	c.RecordGeneration(OutcomeSuccess, 80*time.Millisecond, map[string]int{"attended": 10})
	c.RecordGeneration(OutcomeInvalidConfig, time.Millisecond, nil)

	body := scrape(t, c)
	assert.Contains(t, body, `medscheduler_datasets_generated_total{outcome="success"} 2`)
	assert.Contains(t, body, `medscheduler_datasets_generated_total{outcome="invalid_config"} 1`)
	assert.Contains(t, body, `medscheduler_appointments_generated_total{status="attended"} 40`)
	assert.Contains(t, body, `medscheduler_appointments_generated_total{status="cancelled"} 5`)
	assert.Contains(t, body, "medscheduler_generation_duration_seconds_count 3")
}

func TestRecordHTTPRequest(t *testing.T) {
	c := NewCollector()

	c.RecordHTTPRequest(http.MethodPost, "/v1/datasets", http.StatusOK, 50*time.Millisecond)
	c.RecordHTTPRequest(http.MethodPost, "/v1/datasets", http.StatusBadRequest, time.Millisecond)

	body := scrape(t, c)
	assert.Contains(t, body, `medscheduler_http_requests_total{method="POST",route="/v1/datasets",status="200"} 1`)
	assert.Contains(t, body, `medscheduler_http_requests_total{method="POST",route="/v1/datasets",status="400"} 1`)
	assert.Contains(t, body, `medscheduler_http_request_duration_seconds_count{method="POST",route="/v1/datasets"} 2`)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	a.RecordGeneration(OutcomeSuccess, time.Millisecond, nil)

	assert.Contains(t, scrape(t, a), `medscheduler_datasets_generated_total{outcome="success"} 1`)
	assert.NotContains(t, scrape(t, b), `outcome="success"`)
}
