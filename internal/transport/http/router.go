package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"

	"hobbyhub/internal/handler"
	"hobbyhub/internal/httputil"
	authmw "hobbyhub/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler     *handler.AuthHandler
	PostHandler     *handler.PostHandler
	LikeHandler     *handler.LikeHandler
	AdminHandler    *handler.AdminHandler
	MediaHandler    *handler.MediaHandler // nil when R2 is not configured
	FrontendHandler *handler.FrontendHandler

	Resolver       authmw.CallerResolver
	Users          authmw.UserLookup
	AllowedOrigins []string
}

// NewRouter creates the chi router with all route groups, wrapped in CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, httputil.StatusResponse{Status: "ok"})
	})
	r.Get("/frontend", cfg.FrontendHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		// Public routes - no authentication required
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)

		// Public reads with optional authentication (fills liked_by_me)
		r.Group(func(r chi.Router) {
			r.Use(authmw.OptionalAuthMiddleware(cfg.Resolver))
			r.Get("/posts", cfg.PostHandler.List)
			r.Get("/users/{id}/posts", cfg.PostHandler.ListByUser)
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.Resolver))

			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Get("/me", cfg.AuthHandler.Me)
			r.Post("/posts", cfg.PostHandler.Create)
			r.Post("/like/{id}", cfg.LikeHandler.Toggle)

			if cfg.MediaHandler != nil {
				r.Post("/media/images", cfg.MediaHandler.UploadImage)
				r.Post("/media/images/presign", cfg.MediaHandler.PresignImage)
			}

			r.With(authmw.AdminOnly(cfg.Users)).Get("/admin/users", cfg.AdminHandler.ListUsers)
		})
	})

	return corsHandler(cfg.AllowedOrigins)(r)
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := []handlers.CORSOption{
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Requested-With"}),
		handlers.MaxAge(600),
	}
	// Browsers refuse credentialed requests against a wildcard origin.
	if !containsWildcard(origins) {
		opts = append(opts, handlers.AllowCredentials())
	}
	return handlers.CORS(opts...)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
