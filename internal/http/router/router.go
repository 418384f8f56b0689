package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/health"
	"github.com/lmring/lmring/internal/http/handler"
	"github.com/lmring/lmring/internal/http/middleware"
	"github.com/lmring/lmring/internal/http/response"
	"github.com/lmring/lmring/internal/i18n"
)

const (
	defaultBodyLimit = 1 << 20
	// multipart framing on top of the avatar itself
	multipartOverhead = 64 << 10
)

type Dependencies struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	APIKeyHandler *handler.APIKeyHandler
	ArenaHandler  *handler.ArenaHandler
	AdminHandler  *handler.AdminHandler
	PageHandler   *handler.PageHandler

	Session *middleware.SessionMiddleware
	Routing *i18n.Routing

	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	AuthRateLimiter  AuthRateLimiterFunc
	APIRateLimiter   APIRateLimiterFunc
	AvatarMaxBytes   int64
	Readiness        *health.ProbeRunner
	EnableOTelHTTP   bool
}

type AuthRateLimiterFunc func(http.Handler) http.Handler
type APIRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	if dep.Session != nil {
		r.Use(dep.Session.Handler)
	}

	var authLimiter func(http.Handler) http.Handler = dep.AuthRateLimiter
	if dep.AuthRateLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").WithKeyFunc(middleware.IPKey).Middleware()
	}
	var apiLimiter func(http.Handler) http.Handler = dep.APIRateLimiter
	if dep.APIRateLimiter == nil {
		apiLimiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware()
	}
	avatarLimit := dep.AvatarMaxBytes
	if avatarLimit <= 0 {
		avatarLimit = handler.DefaultAvatarMaxBytes
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.BodyLimit(defaultBodyLimit))
		r.Use(authLimiter)
		r.Handle("/*", dep.AuthHandler)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Use(middleware.CSRFMiddleware)
		r.Use(apiLimiter)

		r.Get("/rankings", dep.ArenaHandler.Rankings)

		// Avatar uploads get their own ceiling instead of the default one.
		r.With(middleware.BodyLimit(avatarLimit+multipartOverhead)).Post("/me/avatar", dep.UserHandler.UploadAvatar)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(defaultBodyLimit))

			r.Get("/me", dep.UserHandler.Me)
			r.Patch("/me", dep.UserHandler.UpdateMe)
			r.Delete("/me/avatar", dep.UserHandler.DeleteAvatar)
			r.Get("/me/preferences", dep.UserHandler.GetPreferences)
			r.Put("/me/preferences", dep.UserHandler.PutPreferences)

			r.Get("/api-keys", dep.APIKeyHandler.List)
			r.Put("/api-keys/{provider}", dep.APIKeyHandler.Put)
			r.Delete("/api-keys/{provider}", dep.APIKeyHandler.Delete)

			r.Get("/conversations", dep.ArenaHandler.ListConversations)
			r.Post("/conversations", dep.ArenaHandler.CreateConversation)
			r.Get("/conversations/{id}", dep.ArenaHandler.GetConversation)
			r.Post("/conversations/{id}/messages", dep.ArenaHandler.AddMessage)
			r.Post("/messages/{id}/responses", dep.ArenaHandler.AddResponse)
			r.Post("/responses/{id}/vote", dep.ArenaHandler.Vote)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Get("/users", dep.AdminHandler.ListUsers)
				r.Patch("/users/{id}/status", dep.AdminHandler.SetUserStatus)
				r.Patch("/users/{id}/role", dep.AdminHandler.SetUserRole)
			})
		})
	})

	if dep.PageHandler != nil && dep.Routing != nil {
		pages := chi.NewRouter()
		pages.Use(dep.Routing.Middleware)
		pages.Get("/", dep.PageHandler.Index)
		pages.Get("/sign-in", dep.PageHandler.SignIn)
		pages.Get("/sign-up", dep.PageHandler.SignUp)
		pages.Get("/dashboard", dep.PageHandler.Dashboard)
		pages.Get("/dashboard/user-profile", dep.PageHandler.Profile)
		r.Mount("/", pages)
	}

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
