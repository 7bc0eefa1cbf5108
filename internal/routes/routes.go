package routes

import (
	"net/http"

	"github.com/AnshRaj112/moodjournal-backend/internal/handlers"
	"github.com/AnshRaj112/moodjournal-backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Options selects the middleware stack around the API.
type Options struct {
	Sessions       middleware.SessionResolver
	AllowedOrigins []string
	TrustProxy     bool
	// Production enables security headers and the in-process limiters.
	Production bool
	// RateLimiter is the Redis fixed window; nil disables it.
	RateLimiter *middleware.RedisRateLimiter
	Global      *middleware.KeyedLimiter
	Login       *middleware.KeyedLimiter
	Analysis    *middleware.KeyedLimiter
	Log         *zap.Logger
}

// NewRouter wires every endpoint onto a chi router.
func NewRouter(h *handlers.Handler, o Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORS(o.AllowedOrigins))

	if o.Production {
		r.Use(middleware.SecurityHeaders)
		if o.Global != nil {
			r.Use(middleware.RateLimitByIP(o.Global, o.TrustProxy, "Too many requests. Please slow down."))
		}
	}

	// Health check (no rate limit)
	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		if o.RateLimiter != nil {
			r.Use(o.RateLimiter.Middleware)
		}
		SetupRoutes(r, h, o)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"Not found"}`))
	})
	return r
}

// SetupRoutes registers the API endpoints.
func SetupRoutes(r chi.Router, h *handlers.Handler, o Options) {
	authenticate := middleware.Authenticate(o.Sessions, o.Log)

	// Public auth routes
	r.Group(func(r chi.Router) {
		if o.Login != nil {
			r.Use(middleware.RateLimitByIP(o.Login, o.TrustProxy, "Too many login attempts. Please try again later."))
		}
		r.Post("/api/auth/signup", h.SignUp)
		r.Post("/api/auth/signin", h.SignIn)
		r.Post("/api/auth/forgot-password", h.ForgotPassword)
		r.Post("/api/auth/reset-password", h.ResetPassword)
	})
	r.Post("/api/auth/signout", h.SignOut)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/api/auth/session", h.Session)
		r.Post("/api/auth/refresh", h.RefreshSession)

		r.Route("/api/journals", func(r chi.Router) {
			r.Post("/", h.CreateJournal)
			r.Get("/", h.ListJournals)
			r.Get("/mood/{emotion}", h.ListJournalsByMood)
			r.Get("/{id}", h.GetJournal)
			r.Put("/{id}", h.UpdateJournal)
			r.Patch("/{id}", h.UpdateJournal)
			r.Delete("/{id}", h.DeleteJournal)
		})

		r.Group(func(r chi.Router) {
			if o.Analysis != nil {
				r.Use(middleware.RateLimitByUser(o.Analysis, "Too many mood analyses. Please wait a minute."))
			}
			r.Post("/api/mood/analyze", h.AnalyzeMood)
		})
		r.Get("/api/mood/analyses", h.ListAnalyses)

		r.Get("/api/profile", h.GetProfile)
		r.Put("/api/profile", h.UpdateProfile)
		r.Post("/api/profile/avatar", h.UploadAvatar)

		// WebSocket endpoint for auth state changes
		r.Get("/ws/session", h.SessionWebSocket)
	})
}
