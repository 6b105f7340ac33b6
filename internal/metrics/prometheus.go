package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OldStager01/alert-arbiter/internal/logger"
)

const namespace = "arbiter"

var (
	FramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Arbitration frames evaluated",
	})

	FrameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "frame_duration_seconds",
		Help:      "Time spent arbitrating one frame",
		Buckets:   []float64{0.00001, 0.000025, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.005},
	})

	AlertsSelectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_selected_total",
		Help:      "Selection changes by alert type and priority",
	}, []string{"alert_type", "priority"})

	SuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_suppressed_total",
		Help:      "Candidates held back by creation delay",
	})

	CallbackFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "callback_failures_total",
		Help:      "Alert callbacks that started failing and fell back",
	}, []string{"event"})

	UnknownEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unknown_events_total",
		Help:      "Reported events missing from the registry",
	})

	EngagementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engagements_total",
		Help:      "Engagement attempts by result",
	}, []string{"result"})

	DisengagementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "disengagements_total",
		Help:      "Transitions to the disabled state",
	})

	EngagementState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "engagement_state",
		Help:      "1 for the current engagement state",
	}, []string{"state"})

	SourceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_errors_total",
		Help:      "Frame source read failures",
	}, []string{"source"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "0=closed, 1=open, 2=half-open",
	}, []string{"name"})

	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bus_dropped_total",
		Help:      "Events lost to full bus subscribers",
	}, []string{"event_type"})

	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_rate_limited_total",
		Help:      "API requests rejected by a rate limiter",
	}, []string{"scope"})

	SinkPublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sink_publish_total",
		Help:      "Alert sink publishes by result",
	}, []string{"sink", "result"})
)

func ObserveFrame(d time.Duration) {
	FramesTotal.Inc()
	FrameDuration.Observe(d.Seconds())
}

func RecordSelection(alertType, priority string) {
	AlertsSelectedTotal.WithLabelValues(alertType, priority).Inc()
}

func RecordSuppressed(n int) {
	if n > 0 {
		SuppressedTotal.Add(float64(n))
	}
}

func RecordCallbackFailure(event string) {
	CallbackFailuresTotal.WithLabelValues(event).Inc()
}

func RecordUnknownEvents(n int) {
	if n > 0 {
		UnknownEventsTotal.Add(float64(n))
	}
}

func RecordEngagement(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	EngagementsTotal.WithLabelValues(result).Inc()
}

func RecordDisengagement() {
	DisengagementsTotal.Inc()
}

// SetEngagementState marks state as current and clears the others.
func SetEngagementState(state string, all []string) {
	for _, s := range all {
		value := 0.0
		if s == state {
			value = 1
		}
		EngagementState.WithLabelValues(s).Set(value)
	}
}

func RecordSourceError(source string) {
	SourceErrorsTotal.WithLabelValues(source).Inc()
}

func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func RecordSinkPublish(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	SinkPublishTotal.WithLabelValues(sink, result).Inc()
}

func RecordBusDrop(eventType string) {
	BusDroppedTotal.WithLabelValues(eventType).Inc()
}

func RecordRateLimited(scope string) {
	RateLimitedTotal.WithLabelValues(scope).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func StartServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Infof("Prometheus metrics server listening on %s", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Prometheus server error: %v", err)
		}
	}()

	return srv
}
