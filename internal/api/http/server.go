package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/deskflow/ai-ticket-assistant/internal/observability"
)

// ServerConfig carries what the fiber app needs besides its routes.
type ServerConfig struct {
	AppName        string
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	RequestTimeout time.Duration
	AllowOrigins   string
	Routes         RouteConfig
}

// NewServer builds the fiber app with middlewares and routes registered.
func NewServer(cfg ServerConfig) *fiber.App {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "*"
	}
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, cfg.Logger, cfg.Metrics, cfg.RequestTimeout, cfg.AllowOrigins)
	RegisterRoutes(app, cfg.Routes)
	return app
}
