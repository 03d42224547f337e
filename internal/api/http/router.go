package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Responses      *handlers.ResponsesHandler
	Ratings        *handlers.RatingsHandler
	Companies      *handlers.CompaniesHandler
	Roles          *handlers.RolesHandler
	Activity       *handlers.ActivityHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	app.Post("/onboarding", cfg.Companies.SubmitOnboarding)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/resolve", cfg.Tickets.ResolveTicket)
	tickets.Post("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)
	tickets.Post("/:id/reassign", cfg.Tickets.ReassignTicket)
	tickets.Post("/:id/responses", cfg.Responses.CreateResponse)
	tickets.Get("/:id/responses", cfg.Responses.ListResponses)
	tickets.Post("/:id/rating", cfg.Ratings.CreateRating)
	tickets.Patch("/:id/rating", cfg.Ratings.UpdateRating)
	tickets.Get("/:id/rating", cfg.Ratings.GetRating)

	protected.Get("/agents/:id/score", cfg.Ratings.AgentScore)

	companies := protected.Group("/companies")
	companies.Get("/:id", cfg.Companies.GetCompany)
	companies.Post("/:id/categories", cfg.Tickets.CreateCategory)
	companies.Get("/:id/categories", cfg.Tickets.ListCategories)
	companies.Get("/:id/roles", cfg.Roles.ListCompanyRoles)

	protected.Post("/roles", cfg.Roles.AssignRole)
	protected.Delete("/roles/:id", cfg.Roles.RevokeRole)
	protected.Get("/users/:id/roles", cfg.Roles.ListUserRoles)
	protected.Get("/users/:id/activity", cfg.Activity.ListUserActivity)

	admin := protected.Group("/admin")
	admin.Get("/onboarding", cfg.Companies.ListOnboarding)
	admin.Get("/onboarding/:id", cfg.Companies.GetOnboarding)
	admin.Post("/onboarding/:id/approve", cfg.Companies.ApproveOnboarding)
	admin.Post("/onboarding/:id/reject", cfg.Companies.RejectOnboarding)
	admin.Get("/companies", cfg.Companies.ListCompanies)
	admin.Post("/companies/:id/suspend", cfg.Companies.SuspendCompany)
	admin.Post("/companies/:id/activate", cfg.Companies.ActivateCompany)
	admin.Get("/activity/:entity_type/:id", cfg.Activity.ListEntityActivity)
}
