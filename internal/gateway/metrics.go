package gateway

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the gateway.
type Metrics struct {
	Turns        *prometheus.CounterVec
	Commands     *prometheus.CounterVec
	ModelLatency prometheus.Histogram
}

// NewMetrics registers the instruments on reg under the given namespace.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome.",
		}, []string{"outcome"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Interpreted control commands by kind.",
		}, []string{"kind"}),
		ModelLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_turn_seconds",
			Help:      "Wall time of model-backed chat turns in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
	}
}

// ObserveModelTurn records the duration of one model-backed turn.
func (m *Metrics) ObserveModelTurn(d time.Duration) {
	m.ModelLatency.Observe(d.Seconds())
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
