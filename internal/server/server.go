package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/declaration"
	"github.com/Serafin06/DeclarationGenerator/internal/orders"
	"github.com/Serafin06/DeclarationGenerator/internal/pipeline"
)

type Catalog interface {
	Load(ctx context.Context) (*catalog.Data, error)
	Reload(ctx context.Context) (*catalog.Data, error)
	Version() uint64
}

type Options struct {
	Service  *pipeline.DeclarationService
	Catalog  Catalog
	Orders   orders.Source
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

type Server struct {
	svc     *pipeline.DeclarationService
	catalog Catalog
	orders  orders.Source
	metrics *Metrics
	log     *zap.Logger
	engine  *gin.Engine
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Orders == nil {
		opts.Orders = orders.Disabled{}
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	metrics, err := NewMetrics(opts.Registry)
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:     opts.Service,
		catalog: opts.Catalog,
		orders:  opts.Orders,
		metrics: metrics,
		log:     opts.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(opts.Logger), metrics.Handler())
	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "resource not found")
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	r.GET("/materials", s.materials)
	r.GET("/structures/parse", s.parseStructure)
	r.POST("/aggregate", s.aggregate)
	r.POST("/declarations/:type", s.declaration)
	r.GET("/orders/:number", s.order)
	r.POST("/catalog/reload", s.reload)

	s.engine = r
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if _, err := s.catalog.Load(ctx); err != nil {
		s.log.Error("health: catalog", zap.Error(err))
		writeError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "catalog unavailable")
		return
	}

	ordersStatus := "ok"
	if err := s.orders.Ping(ctx); err != nil {
		if !errors.Is(err, orders.ErrDisabled) {
			s.log.Error("health: orders", zap.Error(err))
			writeError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "order database unavailable")
			return
		}
		ordersStatus = "disabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"catalog_version": s.catalog.Version(),
		"orders":          ordersStatus,
	})
}

func (s *Server) materials(c *gin.Context) {
	list, err := s.svc.Materials(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": list})
}

func (s *Server) parseStructure(c *gin.Context) {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "query parameter q is required")
		return
	}
	res, sug, err := s.svc.ParseStructure(c.Request.Context(), q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"materials":   res.Materials,
		"all_found":   res.AllFound,
		"unmatched":   res.Unmatched,
		"suggestions": sug,
	})
}

type aggregateRequest struct {
	Materials []string `json:"materials" binding:"required"`
}

func (s *Server) aggregate(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	payload, err := s.svc.Aggregate(c.Request.Context(), req.Materials)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.observe(payload.Diagnostics)
	c.JSON(http.StatusOK, payload)
}

// declaration builds a tech or client declaration; "bok" is accepted for client.
func (s *Server) declaration(c *gin.Context) {
	typ, err := declaration.ParseType(c.Param("type"))
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "unknown declaration type")
		return
	}
	format := c.DefaultQuery("format", "html")
	if format != "html" && format != "json" {
		writeError(c, http.StatusBadRequest, "BAD_REQUEST", "format must be html or json")
		return
	}

	var d *declaration.Declaration
	switch typ {
	case declaration.TypeTech:
		var req pipeline.TechRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
			return
		}
		d, err = s.svc.BuildTech(c.Request.Context(), req)
	default:
		var req pipeline.ClientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
			return
		}
		d, err = s.svc.BuildClient(c.Request.Context(), req)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, d, format)
}

// respond writes the declaration as HTML or as its template view together with
// the warnings. Only declarations that were written out are counted.
func (s *Server) respond(c *gin.Context, d *declaration.Declaration, format string) {
	if format == "json" {
		c.JSON(http.StatusOK, gin.H{
			"declaration": d.TemplateData(),
			"warnings":    d.Warnings(),
		})
		s.countDeclaration(d)
		return
	}

	html, err := s.svc.Render(c.Request.Context(), d)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("X-Declaration-ID", d.ID)
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
	s.countDeclaration(d)
}

func (s *Server) countDeclaration(d *declaration.Declaration) {
	s.metrics.declarations.WithLabelValues(string(d.Type), string(d.Language)).Inc()
	s.metrics.observe(d.Diagnostics)
}

func (s *Server) order(c *gin.Context) {
	prefill, err := s.svc.LookupOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefill)
}

func (s *Server) reload(c *gin.Context) {
	data, err := s.catalog.Reload(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"version":    s.catalog.Version(),
		"materials":  len(data.Materials),
		"substances": len(data.Substances),
		"dual_use":   len(data.DualUse),
	})
}

// fail maps domain errors onto the JSON error envelope. Unknown errors are logged
// and reported without detail.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pipeline.ErrLayerCount),
		errors.Is(err, pipeline.ErrNoBatches),
		errors.Is(err, pipeline.ErrMissingClient),
		errors.Is(err, pipeline.ErrInvalidDate),
		errors.Is(err, pipeline.ErrEmptyProductName),
		errors.Is(err, declaration.ErrUnknownLanguage),
		errors.Is(err, declaration.ErrUnknownType):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, orders.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "order not found")
	case errors.Is(err, orders.ErrDisabled):
		writeError(c, http.StatusServiceUnavailable, "ORDERS_DISABLED", "order lookups are not configured")
	case errors.Is(err, catalog.ErrDataUnavailable):
		s.log.Error("catalog unavailable", zap.String("request_id", requestID(c)), zap.Error(err))
		writeError(c, http.StatusServiceUnavailable, "DATA_UNAVAILABLE", "catalog data unavailable")
	default:
		s.log.Error("request failed", zap.String("request_id", requestID(c)), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
