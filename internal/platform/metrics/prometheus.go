package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the service's Prometheus collectors.
type Manager struct {
	Registry *prometheus.Registry

	ApplicationsSubmitted  prometheus.Counter
	ApplicationsApproved   prometheus.Counter
	ApplicationsRejected   prometheus.Counter
	ReceiptsConfirmed      prometheus.Counter
	PaymentsFinalized      *prometheus.CounterVec // source
	PaymentFinalizeNoops   *prometheus.CounterVec // source, reason
	WebhookSignatureErrors prometheus.Counter
	NotificationFailures   *prometheus.CounterVec // channel
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestErrorsTotal *prometheus.CounterVec
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	m := &Manager{
		Registry: registry,
		ApplicationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_submitted_total",
			Help:      "Total number of rental applications submitted.",
		}),
		ApplicationsApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_approved_total",
			Help:      "Total number of rental applications approved by listing owners.",
		}),
		ApplicationsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_rejected_total",
			Help:      "Total number of competing applications rejected by an approval.",
		}),
		ReceiptsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_confirmed_total",
			Help:      "Total number of receipts confirmed by renters.",
		}),
		PaymentsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_finalized_total",
			Help:      "Total number of payments that completed the rental, by completion source.",
		}, []string{"source"}),
		PaymentFinalizeNoops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_finalize_noops_total",
			Help:      "Completion attempts that changed nothing, by source and reason.",
		}, []string{"source", "reason"}),
		WebhookSignatureErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_signature_errors_total",
			Help:      "Payment webhooks rejected because of an invalid signature.",
		}),
		NotificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Best-effort notification deliveries that failed, by channel.",
		}, []string{"channel"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		HTTPRequestErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "HTTP responses with status >= 400 by route and status code.",
		}, []string{"route", "code"}),
	}

	registry.MustRegister(
		m.ApplicationsSubmitted,
		m.ApplicationsApproved,
		m.ApplicationsRejected,
		m.ReceiptsConfirmed,
		m.PaymentsFinalized,
		m.PaymentFinalizeNoops,
		m.WebhookSignatureErrors,
		m.NotificationFailures,
		m.HTTPRequestDuration,
		m.HTTPRequestErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Server exposes the registry on /metrics.
type Server struct {
	srv *http.Server
	log logger.Logger
}

func NewServer(port string, registry *prometheus.Registry, log logger.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Infof("Prometheus metrics server starting on %s/metrics", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
