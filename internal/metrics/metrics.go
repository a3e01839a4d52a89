// Package metrics exposes Prometheus collectors for reading traffic.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/ports"
)

const namespace = "glucose"

var _ ports.Observer = (*Metrics)(nil)

// Metrics holds the collectors registered for one server
type Metrics struct {
	readingsCreated  *prometheus.CounterVec
	readingsRejected *prometheus.CounterVec
	lastLevel        *prometheus.GaugeVec
	requestDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_created_total",
			Help:      "Readings stored, by meal context and range.",
		}, []string{"meal_type", "range"}),
		readingsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_rejected_total",
			Help:      "Create requests rejected by validation, by reason.",
		}, []string{"reason"}),
		lastLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_level",
			Help:      "Level of the most recently stored reading, by meal context.",
		}, []string{"meal_type"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.readingsCreated, m.readingsRejected, m.lastLevel, m.requestDuration)
	return m
}

// ReadingCreated counts a stored reading
func (m *Metrics) ReadingCreated(r *domain.Reading) {
	rng := "in_range"
	if r.IsOutOfRange() {
		rng = "out_of_range"
	}
	m.readingsCreated.WithLabelValues(string(r.MealContext), rng).Inc()
	m.lastLevel.WithLabelValues(string(r.MealContext)).Set(float64(r.Level))
}

// ReadingRejected counts a validation failure
func (m *Metrics) ReadingRejected(err error) {
	m.readingsRejected.WithLabelValues(reason(err)).Inc()
}

// Middleware records request latency per route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidMealContext):
		return "invalid_meal_context"
	case errors.Is(err, domain.ErrInvalidLevel):
		return "invalid_level"
	case errors.Is(err, domain.ErrLevelOutOfRange):
		return "level_out_of_range"
	}
	return "other"
}
