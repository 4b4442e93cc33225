package routes

import (
	"net/http"

	"github.com/pennypet/server/internal/app"
	"github.com/pennypet/server/internal/handler"
	"github.com/pennypet/server/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService)
	profile := handler.NewProfileHandler(app.ProfileService)
	goal := handler.NewGoalHandler(app.GoalService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth(app.Cfg.AuthRateLimit, app.Cfg.AuthRateWindow, app.Cfg.TrustProxy)

	mux.HandleFunc("POST /api/auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	// Goals
	mux.HandleFunc("GET /api/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /api/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /api/goals/export", middleware.RequireAuth(goal.Export))
	mux.HandleFunc("GET /api/goals/stream", middleware.RequireAuth(goal.StreamGoals))
	mux.HandleFunc("GET /api/goals/{id}", middleware.RequireAuth(goal.Get))
	mux.HandleFunc("PUT /api/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("DELETE /api/goals/{id}", middleware.RequireAuth(goal.Delete))
	mux.HandleFunc("GET /api/goals/{id}/stream", middleware.RequireAuth(goal.StreamGoal))

	// Contributions
	mux.HandleFunc("POST /api/goals/{id}/contributions", middleware.RequireAuth(goal.Contribute))
	mux.HandleFunc("POST /api/goals/{id}/amendments", middleware.RequireAuth(goal.Amend))
	mux.HandleFunc("GET /api/goals/{id}/contributions", middleware.RequireAuth(goal.Contributions))
	mux.HandleFunc("GET /api/goals/{id}/contributions/stream", middleware.RequireAuth(goal.StreamContributions))

	// Profile
	mux.HandleFunc("GET /api/profile", middleware.RequireAuth(profile.Get))
	mux.HandleFunc("PATCH /api/profile/name", middleware.RequireAuth(profile.UpdateName))
	mux.HandleFunc("PUT /api/profile/pet", middleware.RequireAuth(profile.SelectPet))
	mux.HandleFunc("GET /api/profile/stream", middleware.RequireAuth(profile.StreamProfile))

	// Costume shop
	mux.HandleFunc("GET /api/costumes", middleware.RequireAuth(profile.Costumes))
	mux.HandleFunc("POST /api/costumes/{id}/purchase", middleware.RequireAuth(profile.PurchaseCostume))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Authenticate(app.AuthService),
	)

	return handler
}
