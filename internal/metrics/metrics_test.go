package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ExposesBenchmarkMetrics(t *testing.T) {
	QueriesTotal.WithLabelValues("H3").Inc()
	QueryDurationMs.WithLabelValues("POSTGIS", "7").Observe(1.25)
	CorpusSize.Set(320)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), `h3perf_queries_total{strategy="H3"}`)
	assert.Contains(t, string(body), `h3perf_query_duration_ms_bucket{resolution="7",strategy="POSTGIS"`)
	assert.Equal(t, float64(320), testutil.ToFloat64(CorpusSize))
}
