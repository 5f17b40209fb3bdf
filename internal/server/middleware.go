package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Serafin06/DeclarationGenerator/internal"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is where the request ID is stored on the gin context.
	RequestIDKey = "request_id"
)

// RequestID reuses the caller's X-Request-ID or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// AccessLog writes one structured line per request once the handler has finished.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("request_id", requestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
		)
	}
}

type Metrics struct {
	requests     *prometheus.CounterVec
	declarations *prometheus.CounterVec
	unresolved   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		declarations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "declarations_built_total",
				Help: "Declarations assembled, by type and language.",
			},
			[]string{"type", "language"},
		),
		unresolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aggregation_unresolved_total",
				Help: "Unresolved catalog references seen while aggregating, by kind.",
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.requests, m.declarations, m.unresolved} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(d internal.Diagnostics) {
	m.unresolved.WithLabelValues("material").Add(float64(len(d.UnresolvedMaterials)))
	m.unresolved.WithLabelValues("substance").Add(float64(len(d.UnresolvedSubstanceIDs)))
	m.unresolved.WithLabelValues("dual_use").Add(float64(len(d.UnresolvedDualUseIDs)))
	m.unresolved.WithLabelValues("segment").Add(float64(len(d.UnmatchedSegments)))
}

// Handler counts requests by route pattern. /metrics itself is not counted.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
