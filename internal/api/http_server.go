package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPDeps are the collaborators served over REST.
type HTTPDeps struct {
	Users           domain.UserService
	Items           domain.ItemService
	Bookings        domain.BookingService
	Requests        domain.RequestService
	Quota           domain.RateLimitStore
	DefaultPageSize int
	// Health reports store readiness for /healthz. Nil means always healthy.
	Health func(ctx context.Context) error
	Logger *zerolog.Logger
}

// HTTPServer exposes the REST API.
type HTTPServer struct {
	cfg    config.APIConfig
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps HTTPDeps) *HTTPServer {
	log := zerolog.Nop()
	if deps.Logger != nil {
		log = deps.Logger.With().Str("component", "http").Logger()
	}
	if deps.DefaultPageSize <= 0 {
		deps.DefaultPageSize = config.DefaultPageSize
	}

	engine := gin.New()
	engine.Use(requestIDMiddleware(), requestLogger(&log), recovery(&log))

	h := &handlers{
		users:           deps.Users,
		items:           deps.Items,
		bookings:        deps.Bookings,
		requests:        deps.Requests,
		defaultPageSize: deps.DefaultPageSize,
		health:          deps.Health,
		log:             &log,
	}

	engine.GET("/healthz", h.healthz)

	auth := NewHTTPAuth(cfg, deps.Quota, &log)
	api := engine.Group("/", auth.Middleware())
	registerRoutes(api, h)

	srv := &HTTPServer{cfg: cfg, engine: engine, log: log}
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func registerRoutes(r *gin.RouterGroup, h *handlers) {
	users := r.Group("/users")
	users.POST("", h.createUser)
	users.GET("", h.listUsers)
	users.GET("/:id", h.getUser)
	users.PATCH("/:id", h.updateUser)
	users.DELETE("/:id", h.deleteUser)

	items := r.Group("/items")
	items.POST("", h.createItem)
	items.GET("", h.listOwnerItems)
	items.GET("/search", h.searchItems)
	items.GET("/:id", h.getItem)
	items.PATCH("/:id", h.updateItem)
	items.DELETE("/:id", h.deleteItem)
	items.POST("/:id/comment", h.addComment)

	bookings := r.Group("/bookings")
	bookings.POST("", h.createBooking)
	bookings.GET("", h.listBookerBookings)
	bookings.GET("/owner", h.listOwnerBookings)
	bookings.GET("/:id", h.getBooking)
	bookings.PATCH("/:id", h.approveBooking)

	requests := r.Group("/requests")
	requests.POST("", h.createRequest)
	requests.GET("", h.listOwnRequests)
	requests.GET("/all", h.listOtherRequests)
	requests.GET("/:id", h.getRequest)
}

// Handler exposes the router, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
