package observability

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darkroom_decisions_total",
			Help: "Total number of moderation decisions by resulting state",
		},
		[]string{"state"},
	)

	suspensionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darkroom_suspensions_total",
			Help: "Total number of users sent to the dark room",
		},
		[]string{"reason"},
	)

	releasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darkroom_releases_total",
			Help: "Total number of users released from the dark room",
		},
		[]string{"source"},
	)

	messageProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "darkroom_message_processing_duration_seconds",
			Help:    "Time spent moderating a single message",
			Buckets: prometheus.DefBuckets,
		},
	)

	registerOnce sync.Once
)

// Register adds the collectors to the default registry, once per process.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(decisionsTotal, suspensionsTotal, releasesTotal, messageProcessingDuration)
	})
}

func RecordDecision(state string) {
	decisionsTotal.WithLabelValues(state).Inc()
}

func RecordSuspension(reason string) {
	suspensionsTotal.WithLabelValues(reason).Inc()
}

func RecordRelease(source string, n int) {
	releasesTotal.WithLabelValues(source).Add(float64(n))
}

// StartMessageProcessing returns a function that observes the elapsed processing time.
func StartMessageProcessing() func() {
	timer := prometheus.NewTimer(messageProcessingDuration)
	return func() {
		timer.ObserveDuration()
	}
}

// Server exposes /metrics and plugs into the lifecycle runtime.
type Server struct {
	srv *http.Server
	wg  sync.WaitGroup
}

func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Start(_ context.Context) error {
	Register()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.WithField("addr", s.srv.Addr).Info("metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.wg.Wait()
	return err
}
