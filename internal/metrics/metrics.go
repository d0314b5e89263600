package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout counts checkout attempts by outcome and tracks their latency.
// A nil *Checkout is valid and records nothing (tests, cmd/migrate).
type Checkout struct {
	attempts *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewCheckout(service string) *Checkout {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "shop",
		Subsystem:   "checkout",
		Name:        "attempts_total",
		Help:        "Checkout attempts by result.",
		ConstLabels: prometheus.Labels{"service": service},
	}, []string{"result"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "shop",
		Subsystem:   "checkout",
		Name:        "duration_seconds",
		Help:        "Checkout latency end to end, locks included.",
		Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		ConstLabels: prometheus.Labels{"service": service},
	})
	prometheus.MustRegister(attempts, duration)
	return &Checkout{attempts: attempts, duration: duration}
}

func (c *Checkout) Observe(result string, d time.Duration) {
	if c == nil {
		return
	}
	c.attempts.WithLabelValues(result).Inc()
	c.duration.Observe(d.Seconds())
}

func Handler() http.Handler { return promhttp.Handler() }
