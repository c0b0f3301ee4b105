// Package metrics exposes Prometheus instrumentation for the image
// delivery services and the standalone metrics HTTP server the main server
// runs next to its API listener.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RetrievalsTotal counts storage retrievals by URI scheme and result
	// ("ok" or "error").
	RetrievalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_delivery_retrievals_total",
		Help: "Storage retrievals by URI scheme and result.",
	}, []string{"scheme", "result"})

	// BytesStreamedTotal counts object bytes relayed to clients, by URI
	// scheme.
	BytesStreamedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_delivery_bytes_streamed_total",
		Help: "Object bytes relayed to clients, by URI scheme.",
	}, []string{"scheme"})

	// ImageRequestsTotal counts image data requests by HTTP status code.
	ImageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_delivery_image_requests_total",
		Help: "Image data requests by HTTP status code.",
	}, []string{"code"})

	// InflightStreams tracks chunk streams currently being relayed.
	InflightStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "image_delivery_inflight_streams",
		Help: "Chunk streams currently open and being relayed.",
	})

	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "image_delivery_build_info",
		Help: "Service identity, value is always 1.",
	}, []string{"service"})
)

// MetricsServer serves the Prometheus registry on its own listener, kept
// separate from the API listener so scrapes never compete with image
// streaming.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the named service bound to addr. The
// address may be empty when metrics are disabled; the caller then simply
// never starts the server.
func New(name, addr string) (*MetricsServer, error) {
	if name == "" {
		return nil, errors.New("service name is required")
	}
	buildInfo.WithLabelValues(name).Set(1)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
