package api

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RouterConfig configures NewRouter
type RouterConfig struct {
	BodyLimit string
	// PublicKey enables RS256 bearer token checks on /screening/*
	PublicKey *rsa.PublicKey
	Issuer    string
	Gatherer  prometheus.Gatherer
	// PropagateTrace extracts W3C trace context from incoming requests
	PropagateTrace bool
}

// LoadPublicKey reads a PEM encoded RSA public key
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWT public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
	}
	return key, nil
}

// NewRouter builds the echo server with the health, metrics and screening routes
func NewRouter(screening *ScreeningHandler, names *NamesHandler, cfg RouterConfig, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.PropagateTrace {
		e.Use(extractTraceContext)
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("trace_id", traceID(c.Request().Context())))
			return nil
		},
	}))
	e.Use(middleware.CORS())
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	e.GET("/health", screening.Health)
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	apiGroup := e.Group("/screening")
	if cfg.PublicKey != nil {
		apiGroup.Use(echojwt.WithConfig(echojwt.Config{
			SigningKey:    cfg.PublicKey,
			SigningMethod: "RS256",
			NewClaimsFunc: func(c echo.Context) jwt.Claims {
				return new(jwt.RegisteredClaims)
			},
		}))
		if cfg.Issuer != "" {
			apiGroup.Use(requireIssuer(cfg.Issuer))
		}
	}

	screening.RegisterRoutes(apiGroup)
	names.RegisterRoutes(apiGroup.Group("/names"))
	return e
}

// requireIssuer rejects validated tokens minted by another issuer
func requireIssuer(issuer string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing token"})
			}
			if iss, err := token.Claims.GetIssuer(); err != nil || iss != issuer {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token issuer"})
			}
			return next(c)
		}
	}
}

func extractTraceContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func traceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}
