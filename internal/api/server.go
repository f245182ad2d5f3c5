package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/domain"
	"verge-groups/internal/interfaces"
	"verge-groups/internal/syncache"
	"verge-groups/internal/view"
)

type Server struct {
	config     config.API
	view       interfaces.GroupView
	scheduler  interfaces.Scheduler
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(
	cfg config.API,
	groupView interfaces.GroupView,
	scheduler interfaces.Scheduler,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		config:    cfg,
		view:      groupView,
		scheduler: scheduler,
		gatherer:  gatherer,
		logger:    logger.With(zap.String("component", "api")),
		router:    router,
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware())

	s.router.GET("/health", s.handleHealth)
	s.router.GET(s.config.MetricsPath, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.router.GET("/rows", s.handleRows)
	s.router.GET("/sync", s.handleSync)

	groups := s.router.Group("/groups/:name")
	groups.GET("/head", s.handleGetHead)
	groups.PATCH("/head", s.handlePatchHead)
	groups.POST("/delay", s.handleCheckAll)
	groups.PUT("/proxy", s.handleChangeProxy)
	groups.GET("/location", s.handleLocation)

	s.router.GET("/verge", s.handleGetVerge)
	s.router.PATCH("/verge", s.handlePatchVerge)
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Middleware

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		s.logger.Debug("API request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.ClientIP()))
	}
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	if s.scheduler != nil && !s.scheduler.IsHealthy() {
		c.String(http.StatusServiceUnavailable, "unhealthy")
		return
	}
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleRows(c *gin.Context) {
	rows, err := s.view.Rows()
	if err != nil {
		s.fail(c, err)
		return
	}

	offset, limit, ok := window(c, len(rows))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset or limit parameter"})
		return
	}
	visible := rows[offset : offset+limit]
	if c.DefaultQuery("realize", "1") != "0" {
		s.view.Realize(visible)
	}

	out := make([]rowResponse, 0, len(visible))
	for _, r := range visible {
		out = append(out, newRowResponse(r, s.view.Icon))
	}
	c.JSON(http.StatusOK, gin.H{
		"total":  len(rows),
		"offset": offset,
		"rows":   out,
	})
}

func (s *Server) handleSync(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"caches": s.view.SyncState()})
}

// window parses the offset/limit query of a row request and clamps it to n.
func window(c *gin.Context, n int) (offset, limit int, ok bool) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, false
	}
	limit = n
	if v := c.Query("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			return 0, 0, false
		}
	}
	offset = min(offset, n)
	limit = min(limit, n-offset)
	return offset, limit, true
}

func (s *Server) handleGetHead(c *gin.Context) {
	head, err := s.view.HeadState(groupParam(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, head)
}

func (s *Server) handlePatchHead(c *gin.Context) {
	var patch domain.HeadPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	head, err := s.view.OnHeadState(groupParam(c), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, head)
}

func (s *Server) handleCheckAll(c *gin.Context) {
	started, err := s.view.OnCheckAll(groupParam(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"started": started})
}

type changeProxyRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) handleChangeProxy(c *gin.Context) {
	var req changeProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.view.OnChangeProxy(c.Request.Context(), groupParam(c), req.Name); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLocation(c *gin.Context) {
	index, err := s.view.OnLocation(groupParam(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"index": index})
}

func (s *Server) handleGetVerge(c *gin.Context) {
	v, err := s.view.Verge()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handlePatchVerge(c *gin.Context) {
	var patch domain.VergePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.view.PatchVerge(c.Request.Context(), patch); err != nil {
		s.fail(c, err)
		return
	}
	v, err := s.view.Verge()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func groupParam(c *gin.Context) domain.GroupName {
	return domain.GroupName(c.Param("name"))
}

// fail maps view errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	var mutErr *syncache.MutationError
	switch {
	case errors.Is(err, syncache.ErrPending):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, view.ErrUnknownGroup), errors.Is(err, view.ErrUnknownProxy):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, view.ErrNotSelectable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &mutErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "key": mutErr.Key})
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
