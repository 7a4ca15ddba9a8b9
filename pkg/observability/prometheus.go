// Package observability provides prometheus metrics and the server exposing them
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// MetricsServer exposes /metrics on its own listener
type MetricsServer struct {
	log    logrus.FieldLogger
	server *http.Server
}

// NewMetricsServer creates a metrics server bound to addr
func NewMetricsServer(log logrus.FieldLogger, addr string) *MetricsServer {
	sm := http.NewServeMux()
	sm.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		log: log.WithField("component", "metrics"),
		server: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 15 * time.Second,
			Handler:           sm,
		},
	}
}

// Start serves metrics in the background
func (m *MetricsServer) Start() {
	go func() {
		m.log.WithField("addr", m.server.Addr).Info("Starting metrics server")

		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.WithError(err).Error("Metrics server failed")
		}
	}()
}

// Stop shuts the server down
func (m *MetricsServer) Stop(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler
func (m *MetricsServer) Handler() http.Handler {
	return m.server.Handler
}
