package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/tobiasgrant/storefront/internal/auth"
	"github.com/tobiasgrant/storefront/internal/handlers"
	"github.com/tobiasgrant/storefront/internal/middleware"
	"github.com/tobiasgrant/storefront/internal/providers"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	oauthHandler *handlers.OAuthHandler,
	tokenManager *auth.TokenManager,
	oauthClients map[string]providers.Client,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/refresh", authHandler.Refresh)
	router.Post("/auth/logout", authHandler.Logout)

	// Federated login; providers without credentials are never mounted
	if len(oauthClients) > 0 {
		router.Get("/auth/{provider}", oauthHandler.Begin)
		router.Get("/auth/{provider}/callback", oauthHandler.Callback)
	}

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Get("/auth/me", authHandler.Me)
		r.Post("/auth/logout-all", authHandler.LogoutAll)
		r.Put("/auth/password", authHandler.ChangePassword)
	})
}
