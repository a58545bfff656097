package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/reelbase/reelbase-api/docs"
	"github.com/reelbase/reelbase-api/internal/api/handler"
	"github.com/reelbase/reelbase-api/internal/api/middleware"
	"github.com/reelbase/reelbase-api/internal/core/ports"
)

// Dependencies are the services the HTTP layer is wired to.
type Dependencies struct {
	Accounts  ports.AccountService
	Watchlist ports.WatchlistService
	Reviews   ports.ReviewService
	Tokens    ports.TokenService

	// Idempotency is optional; nil disables Idempotency-Key handling.
	Idempotency middleware.IdempotencyStore
	// Health lists the dependencies checked by /health/ready.
	Health map[string]handler.Pinger

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry

	AllowOrigins []string
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.AllowOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, middleware.HeaderIdempotencyKey},
	}))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "reelbase",
		Registerer: registerer,
	}))

	accounts := handler.NewAccountHandler(deps.Accounts)
	watchlist := handler.NewWatchlistHandler(deps.Watchlist)
	reviews := handler.NewReviewHandler(deps.Reviews)
	health := handler.NewHealthHandler(deps.Health)

	auth := middleware.Auth(deps.Tokens)
	protected := []echo.MiddlewareFunc{auth, middleware.Idempotency(deps.Idempotency, deps.Log)}

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Movie API is running")
	})

	// --- Account routes ---
	users := e.Group("/api/users")
	users.POST("/register", accounts.Register)
	users.POST("/login", accounts.Login)
	users.GET("/verify-email/:token", accounts.VerifyEmail)
	users.GET("/profile", accounts.Profile, protected...)
	users.PUT("/profile", accounts.UpdateProfile, protected...)
	users.POST("/resend-verification", accounts.ResendVerification, protected...)

	// --- Watchlist routes ---
	users.GET("/watchlist", watchlist.List, protected...)
	users.POST("/watchlist", watchlist.Add, protected...)
	users.DELETE("/watchlist/:mediaId", watchlist.Remove, protected...)

	// --- Review routes ---
	rv := e.Group("/api/reviews")
	rv.POST("", reviews.Create, protected...)
	rv.GET("/me", reviews.ListMine, protected...)
	rv.GET("/:mediaType/:mediaId", reviews.ListForMedia)
	rv.PUT("/:id", reviews.Update, protected...)
	rv.DELETE("/:id", reviews.Delete, protected...)

	// --- Operational routes (no auth required) ---
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
