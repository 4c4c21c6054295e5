package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	Comments       *handlers.CommentsHandler
	AdminUsers     *handlers.AdminUsersHandler
	Reports        *handlers.ReportsHandler
	Geo            *handlers.GeoHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Reads stay open to any authenticated
// account; mutations additionally require the account to be unblocked.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/otp/send", cfg.Users.SendOTP)
	authGroup.Post("/otp/check", cfg.Users.CheckOTP)
	authGroup.Post("/otp/verify", cfg.Users.VerifyOTP)
	authGroup.Post("/password/reset", cfg.Users.ResetPassword)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/me", cfg.Users.GetProfile)
	users.Patch("/me", auth.RequireActive(), cfg.Users.UpdateProfile)
	users.Post("/me/password", auth.RequireActive(), cfg.Users.ChangePassword)

	issues := app.Group("/issues")
	issues.Get("/public", cfg.Issues.ListPublic)
	issues.Get("/", cfg.AuthMiddleware.Handle, cfg.Issues.ListFeed)
	issues.Post("/", cfg.AuthMiddleware.Handle, auth.RequireActive(), cfg.Issues.Report)
	issues.Get("/:id", cfg.AuthMiddleware.Handle, cfg.Issues.Get)
	issues.Post("/:id/vote", cfg.AuthMiddleware.Handle, auth.RequireActive(), cfg.Issues.Vote)
	issues.Patch("/:id/status", cfg.AuthMiddleware.Handle, auth.RequireActive(), cfg.Issues.UpdateStatus)
	issues.Delete("/:id", cfg.AuthMiddleware.Handle, auth.RequireActive(), cfg.Issues.Delete)
	issues.Get("/:id/comments", cfg.AuthMiddleware.Handle, cfg.Comments.List)
	issues.Post("/:id/comments", cfg.AuthMiddleware.Handle, auth.RequireActive(), cfg.Comments.Add)

	comments := app.Group("/comments", cfg.AuthMiddleware.Handle, auth.RequireActive())
	comments.Delete("/:id", cfg.Comments.Delete)
	comments.Post("/:id/like", cfg.Comments.ToggleLike)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireActive(), auth.RequireAdmin())
	admin.Get("/users", cfg.AdminUsers.List)
	admin.Patch("/users/:id/block", cfg.AdminUsers.ToggleBlock)
	admin.Patch("/users/:id/role", auth.RequireGlobalAdmin(), cfg.AdminUsers.ToggleRole)
	admin.Delete("/users/:id", cfg.AdminUsers.Delete)
	admin.Get("/reports", cfg.Reports.Get)

	utils := app.Group("/utils", cfg.AuthMiddleware.Handle)
	utils.Get("/geocode/reverse", cfg.Geo.Reverse)
	utils.Get("/geocode/forward", cfg.Geo.Forward)
}
