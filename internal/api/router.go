package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/dtc-ibs/borrowing-api/docs"
	"github.com/dtc-ibs/borrowing-api/internal/api/handler"
	"github.com/dtc-ibs/borrowing-api/internal/api/metrics"
	"github.com/dtc-ibs/borrowing-api/internal/api/middleware"
	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
)

// Deps are the services and health checks the router wires into handlers.
type Deps struct {
	Auth   ports.AuthService
	Items  ports.ItemService
	Borrow ports.BorrowService
	Gate   ports.SessionAuthorizer
	// Audit may be nil; the audit trail route then answers 503.
	Audit ports.AuditHistory

	DatabasePing handler.PingFunc
	// Checks are the optional dependencies reported by /health/ready.
	Checks map[string]handler.PingFunc

	RateLimitRPS   float64
	RateLimitBurst int

	// Registry replaces the default Prometheus registry when set. The domain
	// counters are registered on it so /metrics serves them too.
	Registry *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORS())

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
		d.Registry.MustRegister(metrics.Collectors()...)
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "ibs",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	itemHandler := handler.NewItemHandler(d.Items)
	borrowHandler := handler.NewBorrowHandler(d.Borrow)
	adminHandler := handler.NewAdminHandler(d.Borrow, d.Audit)
	healthHandler := handler.NewHealthHandler(d.DatabasePing, d.Checks, d.Log)

	requireSession := middleware.Auth(d.Gate)

	// --- Operational routes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	apiGroup := e.Group("/api")

	// --- Auth routes ---
	auth := apiGroup.Group("/auth", middleware.RateLimit(d.RateLimitRPS, d.RateLimitBurst))
	auth.POST("/signup", authHandler.Signup)
	auth.GET("/verify", authHandler.Verify)
	auth.POST("/login", authHandler.Login)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/change-password", authHandler.ChangePassword, requireSession)

	// --- Items ---
	items := apiGroup.Group("/items")
	items.GET("", itemHandler.List)
	items.POST("/details", itemHandler.Details)

	// --- Borrow requests ---
	borrow := apiGroup.Group("/borrow", requireSession)
	borrow.GET("", borrowHandler.List)
	borrow.POST("", borrowHandler.Create)
	borrow.DELETE("/:id", borrowHandler.Cancel)

	// --- Admin ---
	admin := apiGroup.Group("/admin", requireSession, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/pending", adminHandler.Pending)
	admin.GET("/approved", adminHandler.Approved)
	admin.GET("/borrowed", adminHandler.Borrowed)
	admin.GET("/logs", adminHandler.Logs)
	admin.PUT("/approve/:id", adminHandler.Approve)
	admin.PUT("/decline/:id", adminHandler.Decline)
	admin.PUT("/scan-borrow/:id", adminHandler.ScanBorrow)
	admin.PUT("/scan-return/:id", adminHandler.ScanReturn)
	admin.PUT("/logs/:id", adminHandler.EditLog)
	admin.GET("/logs/:id/audit", adminHandler.AuditTrail)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
