package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Tickets   *handlers.TicketsHandler
	Sessions  *auth.SessionManager
	Identity  *auth.IdentityMiddleware
	CSRF      fiber.Handler
	Gatherer  prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes. Probes and metrics are registered ahead
// of the session middleware so they never touch session storage.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Use(cfg.Sessions.Middleware())
	if cfg.CSRF != nil {
		app.Use(cfg.CSRF)
	}
	app.Use(cfg.Identity.Handle)

	app.Get("/", cfg.Auth.Index)
	app.Get("/login", cfg.Auth.LoginPage)
	app.Post("/login", cfg.Auth.Login)
	app.Get("/register", cfg.Auth.RegisterPage)
	app.Post("/register", cfg.Auth.Register)
	app.Get("/logout", cfg.Auth.Logout)

	app.Get("/user/dashboard", auth.Require(auth.PermViewOwnTickets, cfg.Sessions), cfg.Dashboard.User)
	app.Get("/agent/dashboard", auth.Require(auth.PermViewAllTickets, cfg.Sessions), cfg.Dashboard.Agent)

	create := auth.Require(auth.PermCreateTicket, cfg.Sessions)
	app.Get("/create_ticket", create, cfg.Tickets.CreatePage)
	app.Post("/create_ticket", create, cfg.Tickets.Create)

	app.Get("/ticket/:id<int>", auth.Require(auth.PermViewTicket, cfg.Sessions), cfg.Tickets.View)
	app.Post("/update_ticket_status/:id<int>", auth.Require(auth.PermUpdateTicketStatus, cfg.Sessions), cfg.Tickets.UpdateStatus)
}
