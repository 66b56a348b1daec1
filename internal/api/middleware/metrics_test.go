package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/datamatch/datamatch/internal/api/middleware"
)

func TestMetrics_RecordsByRoute(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	metrics, err := middleware.NewMetrics()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(metrics.Middleware())
	r.Get("/v1/me/nearby", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/me/nearby?distance=5", http.NoBody))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total *metricdata.Sum[int64]
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "http.server.request.total" {
				sum := m.Data.(metricdata.Sum[int64])
				total = &sum
			}
		}
	}
	require.NotNil(t, total)
	require.Len(t, total.DataPoints, 1)

	dp := total.DataPoints[0]
	assert.Equal(t, int64(2), dp.Value)
	route, _ := dp.Attributes.Value(attribute.Key("http.route"))
	assert.Equal(t, "/v1/me/nearby", route.AsString())
	status, _ := dp.Attributes.Value(attribute.Key("http.status_code"))
	assert.Equal(t, "200", status.AsString())
}
