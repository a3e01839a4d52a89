package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/glucose-log/internal/metrics"
)

// SetupRouter wires the handler routes. m and gatherer may be nil, in which
// case no metrics are recorded or exposed.
func SetupRouter(h *Handler, m *metrics.Metrics, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if m != nil {
		r.Use(m.Middleware())
	}

	api := r.Group("/api/records")
	{
		api.GET("", h.ListRecords)
		api.POST("", h.CreateRecord)
		api.GET("/table", h.Table)
		api.GET("/chart", h.Chart)
		api.GET("/summary", h.Summary)
	}

	r.GET("/healthz", h.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return r
}

// requestLogger logs one line per request through zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
