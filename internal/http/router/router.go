package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"papertrail-server/internal/health"
	"papertrail-server/internal/http/handler"
	"papertrail-server/internal/http/middleware"
	"papertrail-server/internal/http/response"
	"papertrail-server/internal/repository"
	"papertrail-server/internal/security"
)

type Dependencies struct {
	AuthHandler  *handler.AuthHandler
	NoteHandler  *handler.NoteHandler
	JWTManager   *security.JWTManager
	SessionStore repository.SessionStore
	Cookies      *security.CookieWriter
	CORSOrigins  []string
	Readiness    *health.ProbeRunner
	// CredentialLimiter, when set, throttles the endpoints that accept a
	// password.
	CredentialLimiter *middleware.RateLimiter
	EnableOTelHTTP    bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

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

	accessGuard := middleware.AccessGuard(dep.JWTManager, dep.SessionStore)
	refreshGuard := middleware.RefreshGuard(dep.JWTManager, dep.SessionStore, dep.Cookies)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			credentials := r
			if dep.CredentialLimiter != nil {
				credentials = r.With(dep.CredentialLimiter.Middleware())
			}
			credentials.Post("/sign-up", dep.AuthHandler.SignUp)
			credentials.Post("/sign-in", dep.AuthHandler.SignIn)
			r.With(accessGuard).Post("/sign-out", dep.AuthHandler.SignOut)
			r.With(refreshGuard).Post("/refresh", dep.AuthHandler.Refresh)
			r.With(accessGuard).Get("/me", dep.AuthHandler.Me)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(accessGuard)
			r.Get("/", dep.NoteHandler.List)
			r.Post("/", dep.NoteHandler.Create)
			r.Get("/{id}", dep.NoteHandler.Get)
			r.Patch("/{id}", dep.NoteHandler.Update)
			r.Delete("/{id}", dep.NoteHandler.Delete)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
