package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/citywatch/incident-api/docs"
	"github.com/citywatch/incident-api/internal/api/handler"
	"github.com/citywatch/incident-api/internal/api/middleware"
	"github.com/citywatch/incident-api/internal/core/domain"
	"github.com/citywatch/incident-api/internal/core/ports"
	"github.com/citywatch/incident-api/internal/realtime"
)

// Deps carries the constructed dependencies the router wires together.
// Mongo and Redis are only used by the readiness probe and may be nil in
// tests that do not exercise it.
type Deps struct {
	AuthService     ports.AuthService
	IncidentService ports.IncidentService
	Hub             *realtime.Hub
	Mongo           *mongo.Database
	Redis           *redis.Client
	JWTSecret       string
	AllowedOrigins  []string
	Logger          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.AllowedOrigins,
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddleware("citywatch"))

	authMiddleware := middleware.Auth(deps.JWTSecret)
	knownRoles := middleware.RBAC(domain.RoleUser, domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/google", authHandler.GoogleLogin)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// --- Incident routes ---
	incidentHandler := handler.NewIncidentHandler(deps.IncidentService)
	incidents := e.Group("/api/incidents")
	incidents.GET("", incidentHandler.List)
	incidents.GET("/:id", incidentHandler.Get)
	incidents.POST("", incidentHandler.Create, authMiddleware, knownRoles)
	incidents.PUT("/:id", incidentHandler.UpdateStatus, authMiddleware, knownRoles)
	incidents.PUT("/:id/upvote", incidentHandler.ToggleUpvote, authMiddleware, knownRoles)
	incidents.DELETE("/:id", incidentHandler.Delete, authMiddleware, knownRoles)

	// --- Realtime feed ---
	wsHandler := realtime.NewHandler(deps.Hub, deps.AllowedOrigins)
	e.GET("/ws", wsHandler.Serve)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness) // liveness – is the process alive?
	if deps.Mongo != nil && deps.Redis != nil {
		readiness := handler.NewReadinessHandler(deps.Mongo, deps.Redis)
		e.GET("/health/ready", readiness.Readiness) // readiness – are dependencies up?
	}

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
