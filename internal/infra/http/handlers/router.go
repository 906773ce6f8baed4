package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/http/middleware"
	"github.com/mahidhar9542/mortgage-app/pkg/logging"
)

type RouterConfig struct {
	Logger      *logging.Logger
	CORSOrigins []string
	Tokens      middleware.TokenParser
	CookieName  string
	// Limiter throttles the public write endpoints. Nil disables throttling.
	Limiter *middleware.RateLimiter
	Metrics http.Handler

	Leads     *LeadHandler
	Auth      *AuthHandler
	Rates     *RateHandler
	Dashboard *DashboardHandler
	Health    *HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	throttle := func(next http.Handler) http.Handler { return next }
	if cfg.Limiter != nil {
		throttle = middleware.RateLimit(cfg.Limiter)
	}
	authn := middleware.Authenticate(cfg.Tokens, cfg.CookieName)

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		h := cfg.Auth
		r.With(throttle).Post("/signup", h.SignUp)
		r.With(throttle).Post("/signin", h.SignIn)
		r.With(throttle).Post("/forgot-password", h.ForgotPassword)
		r.With(throttle).Post("/reset-password", h.ResetPassword)
		r.Post("/signout", h.SignOut)
		r.With(authn).Get("/me", h.Me)
	})

	r.Route("/api/leads", func(r chi.Router) {
		h := cfg.Leads
		r.With(throttle).Post("/", h.Create)
		r.With(throttle).Post("/refinance", h.CreateRefinance)

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(entity.RoleAdmin, entity.RoleLoanOfficer))
				r.Get("/", h.List)
				r.Get("/search", h.Search)
				r.Get("/stats", h.Stats)
				r.Get("/refinance/stats", h.RefinanceStats)
				r.Get("/{id}", h.Get)
				r.Put("/{id}", h.Update)
				r.Put("/{id}/status", h.UpdateStatus)
				r.Put("/{id}/assign", h.Assign)
			})

			r.With(middleware.RequireRole(entity.RoleAdmin, entity.RoleLoanOfficer, entity.RoleProcessor)).
				Post("/{id}/notes", h.AddNote)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(entity.RoleAdmin))
				r.Delete("/{id}", h.Delete)
				r.Get("/export/csv", h.ExportCSV)
			})
		})
	})

	r.Route("/api/rates", func(r chi.Router) {
		h := cfg.Rates
		r.Get("/", h.Current)
		r.Get("/refresh", h.Refresh)
		r.Get("/history/{rateType}", h.History)
		r.With(throttle).Post("/subscribe", h.Subscribe)
		r.With(authn, middleware.RequireRole(entity.RoleAdmin)).Post("/update", h.Refresh)
	})

	r.Route("/api/dashboard", func(r chi.Router) {
		h := cfg.Dashboard
		r.Use(authn)
		r.Get("/applications", h.Applications)
		r.Get("/applications/{id}", h.ApplicationDetails)
		r.Put("/applications/{id}/status", h.UpdateApplicationStatus)
		r.Get("/documents", h.Documents)
		r.Post("/documents/upload", h.UploadDocument)
		r.Delete("/documents/{id}", h.DeleteDocument)
		r.Get("/loan-team", h.LoanTeam)
		r.Post("/message", h.SendMessage)
		r.Post("/schedule-call", h.ScheduleCall)
		r.Get("/download/disclosures", h.Disclosures)
		r.Get("/credit-report", h.CreditReport)
	})

	return r
}
