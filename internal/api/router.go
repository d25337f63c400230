package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	_ "github.com/cinemaplex/cinema-system/docs"
	"github.com/cinemaplex/cinema-system/internal/api/handler"
	"github.com/cinemaplex/cinema-system/internal/api/middleware"
	"github.com/cinemaplex/cinema-system/internal/core/domain"
	"github.com/cinemaplex/cinema-system/internal/core/ports"
)

// UserDeps is what the User service router needs.
type UserDeps struct {
	ServiceName string
	Identities  ports.IdentityService
	Auth        ports.AuthService
	Signer      ports.SignatureService
	Health      map[string]handler.Pinger
	Log         zerolog.Logger
}

// TicketDeps is what the Ticket service router needs. Authenticator only
// verifies tokens; the client mirror decides whether a client may buy.
type TicketDeps struct {
	ServiceName   string
	Authenticator ports.Authenticator
	Movies        ports.MovieService
	Tickets       ports.TicketService
	Signer        ports.SignatureService
	Health        map[string]handler.Pinger
	Log           zerolog.Logger
}

// NewUserRouter builds the User service Echo instance.
func NewUserRouter(deps UserDeps) *echo.Echo {
	e := newEcho(deps.ServiceName, deps.Log)
	registerCommon(e, deps.Health, deps.Signer)

	authHandler := handler.NewAuthHandler(deps.Identities, deps.Auth)
	identityHandler := handler.NewIdentityHandler(deps.Identities)

	// --- Auth routes ---
	e.POST("/v1/auth/register", authHandler.Register)
	e.POST("/v1/auth/login", authHandler.Login)

	// --- Admin routes ---
	admin := e.Group("/v1/identities", middleware.Auth(deps.Auth), middleware.RBAC(domain.RoleAdmin))
	admin.POST("", identityHandler.Create)
	admin.GET("", identityHandler.List)
	admin.GET("/:id", identityHandler.Get)
	admin.PUT("/:id/status", identityHandler.SetStatus)
	admin.POST("/:id/resync", identityHandler.Resync)

	return e
}

// NewTicketRouter builds the Ticket service Echo instance.
func NewTicketRouter(deps TicketDeps) *echo.Echo {
	e := newEcho(deps.ServiceName, deps.Log)
	registerCommon(e, deps.Health, deps.Signer)

	movieHandler := handler.NewMovieHandler(deps.Movies)
	ticketHandler := handler.NewTicketHandler(deps.Tickets)

	v1 := e.Group("/v1", middleware.Auth(deps.Authenticator))
	anyRole := middleware.RBAC(domain.RoleClient, domain.RoleStaff, domain.RoleAdmin)
	boxOffice := middleware.RBAC(domain.RoleStaff, domain.RoleAdmin)

	// --- Movie routes ---
	v1.GET("/movies", movieHandler.List, anyRole)
	v1.GET("/movies/:id", movieHandler.Get, anyRole)
	v1.POST("/movies", movieHandler.Create, boxOffice)
	v1.PUT("/movies/:id", movieHandler.Update, boxOffice)

	// --- Ticket routes ---
	v1.POST("/tickets", ticketHandler.Create, anyRole)
	v1.GET("/tickets/:id", ticketHandler.Get, anyRole)
	v1.GET("/clients/:id/tickets", ticketHandler.ListByClient, anyRole)

	return e
}

func newEcho(serviceName string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(otelecho.Middleware(serviceName))
	e.Use(echoprometheus.NewMiddleware("cinema"))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Server.ReadHeaderTimeout = 5 * time.Second

	return e
}

// registerCommon adds the routes both services expose without auth.
func registerCommon(e *echo.Echo, health map[string]handler.Pinger, signer ports.SignatureService) {
	healthHandler := handler.NewHealthHandler(health)
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.POST("/v1/signatures/verify", handler.NewSignatureHandler(signer).Verify)
}
