// Package api exposes the run manager, the solution store and the catalog
// over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/config"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/internal/eventbus"
)

// Catalog is the read side of the route and vehicle catalog.
type Catalog interface {
	catalog.Provider
	CompleteRouteIDs() []string
	VehicleIDs() []string
	Zones() []model.Zone
}

// ElevationSource answers single point elevation lookups.
type ElevationSource interface {
	Elevation(ctx context.Context, lat, lng float64) (float64, error)
}

// Deps are the collaborators served by the API. Elevation, Bus and Remote
// are optional.
type Deps struct {
	Manager *run.Manager
	Store   store.SolutionStore
	Catalog Catalog
	Bus     *eventbus.TypedBus[events.RunEvent]
	// Remote carries the events of runs executing on other replicas.
	Remote    *eventbus.TypedBus[events.RunEvent]
	Elevation ElevationSource
	Defaults  run.Request
	Metrics   bool
	Log       logger.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	deps        Deps
	log         logger.Logger
	waitTimeout time.Duration
	upgrader    websocket.Upgrader
}

// NewHandler creates a Handler.
func NewHandler(cfg config.ServerConfig, deps Deps) *Handler {
	return &Handler{
		deps:        deps,
		log:         logger.OrNop(deps.Log),
		waitTimeout: cfg.WaitTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg config.ServerConfig, deps Deps) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger.OrNop(deps.Log)), cors())
	NewHandler(cfg, deps).RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the API on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.POST("/runs", h.SubmitRun)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:processId", h.GetRun)
		api.DELETE("/runs/:processId", h.CancelRun)
		api.GET("/runs/:processId/stream", h.StreamRun)

		api.GET("/routes", h.ListRoutes)
		api.GET("/routes/with-solutions", h.RoutesWithSolutions)
		api.GET("/routes/:id", h.GetRoute)
		api.GET("/routes/:id/solutions", h.SolutionsByRoute)
		api.GET("/vehicles", h.ListVehicles)
		api.GET("/vehicles/:id", h.GetVehicle)
		api.GET("/vehicles/:id/solutions", h.SolutionsByVehicle)
		api.GET("/zones", h.ListZones)
		api.GET("/solutions/:id", h.GetSolution)
		api.DELETE("/solutions/:id", h.DeleteSolution)
		api.GET("/elevation/:lat/:lng", h.GetElevation)
	}
	r.GET("/health", h.HealthCheck)
	if h.deps.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// HealthCheck reports liveness and a few gauges.
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if h.deps.Bus != nil {
		body["subscribers"] = h.deps.Bus.Subscribers()
		body["dropped_events"] = h.deps.Bus.Dropped()
	}
	c.JSON(http.StatusOK, body)
}

// Server runs the router on an http.Server.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	log             logger.Logger
}

// NewServer wraps handler in an http.Server configured from cfg.
func NewServer(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger.OrNop(log),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("http server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http server shutdown: %v", err)
		return err
	}
	return nil
}
