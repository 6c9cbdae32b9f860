package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

// ServerDependencies is everything the HTTP surface needs from main.
type ServerDependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer

	Users    repository.UserRepository
	Auth     *service.AuthService
	Tickets  *service.TicketService
	Postgres *persistence.Postgres
	Redis    *persistence.Redis

	// SessionStorage and CSRFStorage may be nil for process memory.
	SessionStorage fiber.Storage
	CSRFStorage    fiber.Storage
}

// NewServer builds the fiber app with views, middleware and routes.
func NewServer(deps ServerDependencies) (*fiber.App, error) {
	engine, err := NewViewEngine()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		Views:                 engine,
		DisableStartupMessage: true,
		Immutable:             true,
	})
	RegisterMiddlewares(app, logger, deps.Metrics, cfg.App.RequestTimeout())

	sessions := auth.NewSessionManager(cfg.Session, deps.SessionStorage)
	pages := handlers.NewPages(sessions)

	var csrfHandler fiber.Handler
	if cfg.Session.CSRFEnabled {
		csrfHandler = csrf.New(csrf.Config{
			KeyLookup:      "form:csrf_token",
			CookieName:     cfg.Session.CookieName + "_csrf",
			CookieSameSite: "Lax",
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: true,
			Expiration:     time.Hour,
			ContextKey:     handlers.CSRFContextKey,
			Storage:        deps.CSRFStorage,
		})
	}

	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Postgres, deps.Redis),
		Auth:      handlers.NewAuthHandler(deps.Auth, pages),
		Dashboard: handlers.NewDashboardHandler(deps.Tickets, pages),
		Tickets:   handlers.NewTicketsHandler(deps.Tickets, pages),
		Sessions:  sessions,
		Identity:  auth.NewIdentityMiddleware(sessions, deps.Users),
		CSRF:      csrfHandler,
		Gatherer:  deps.Gatherer,
	})
	return app, nil
}
