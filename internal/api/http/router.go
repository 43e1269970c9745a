package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Requests       *handlers.RequestsHandler
	Equipment      *handlers.EquipmentHandler
	Teams          *handlers.TeamsHandler
	AuthMiddleware *auth.AuthMiddleware
	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler http.Handler
	MetricsPath    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(cfg.MetricsHandler))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authn := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}
	authGroup.Get("/me", append(authn, cfg.Auth.Me)...)
	authGroup.Post("/password/change", append(authn, cfg.Auth.ChangePassword)...)

	app.Get("/transitions", append(authn, cfg.Requests.Transitions)...)

	requests := app.Group("/requests", authn...)
	requests.Post("/", cfg.Requests.Create)
	requests.Get("/", cfg.Requests.List)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Get("/:id/actions", cfg.Requests.Actions)
	requests.Get("/:id/history", cfg.Requests.History)
	requests.Post("/:id/assign", cfg.Requests.Assign)
	requests.Post("/:id/start", cfg.Requests.Start)
	requests.Post("/:id/complete", cfg.Requests.Complete)
	requests.Post("/:id/scrap", cfg.Requests.Scrap)

	equipment := app.Group("/equipment", authn...)
	equipment.Post("/", auth.RequireManager(), cfg.Equipment.Create)
	equipment.Get("/", cfg.Equipment.List)
	equipment.Get("/:id", cfg.Equipment.Get)
	equipment.Get("/:id/requests", cfg.Equipment.Requests)

	teams := app.Group("/teams", authn...)
	teams.Post("/", auth.RequireManager(), cfg.Teams.Create)
	teams.Get("/", cfg.Teams.List)
	teams.Get("/:id", cfg.Teams.Get)
	teams.Post("/:id/members", auth.RequireManager(), cfg.Teams.AddMember)
	teams.Delete("/:id/members/:userID", auth.RequireManager(), cfg.Teams.RemoveMember)
}
