package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(CatalogChanges.WithLabelValues("metric", "created"))
	RecordCatalogChange("metric", "created")
	assert.InDelta(t, before+1, testutil.ToFloat64(CatalogChanges.WithLabelValues("metric", "created")), 0.001)

	SetCatalogMetrics(42)
	assert.InDelta(t, 42, testutil.ToFloat64(CatalogMetrics), 0.001)

	before = testutil.ToFloat64(Derivations.WithLabelValues("filter", "success"))
	RecordDerivation("filter", "success")
	assert.InDelta(t, before+1, testutil.ToFloat64(Derivations.WithLabelValues("filter", "success")), 0.001)

	before = testutil.ToFloat64(MetricViews.WithLabelValues("Active"))
	RecordMetricView("Active")
	assert.InDelta(t, before+1, testutil.ToFloat64(MetricViews.WithLabelValues("Active")), 0.001)

	before = testutil.ToFloat64(EventsProcessed.WithLabelValues("tag", "deleted"))
	RecordEventProcessed("tag", "deleted", -1)
	assert.InDelta(t, before+1, testutil.ToFloat64(EventsProcessed.WithLabelValues("tag", "deleted")), 0.001)
}

func TestMetricsServer_Handler(t *testing.T) {
	RecordError("test", "boom")

	srv := NewMetricsServer(logrus.New(), "127.0.0.1:0")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "datasage_errors_total")
}
