package routes

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/chanbara-tournament/handlers"
	"github.com/Dosada05/chanbara-tournament/middleware"
	"github.com/Dosada05/chanbara-tournament/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Athlete   *handlers.AthleteHandler
	Challenge *handlers.ChallengeHandler
	Specialty *handlers.SpecialtyHandler
	Admin     *handlers.AdminHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	Tokens         services.TokenService
	Logger         *slog.Logger
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.Tokens)

	router.Get("/ws/sfide", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/admin/login", h.Auth.AdminLogin)
		})

		r.Route("/atleti", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Athlete.List)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAthlete)
				r.Get("/me/profile", h.Athlete.Profile)
				r.Put("/me/avatar", h.Athlete.UploadAvatar)
				r.Get("/challenge/possible-opponents", h.Athlete.PossibleOpponents)
			})
		})

		r.Route("/sfide", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", h.Challenge.List)
			r.Get("/{id}", h.Challenge.Get)
			r.With(middleware.RequireAthlete).Post("/", h.Challenge.Create)
			r.With(middleware.RequireAdmin).Post("/{id}/risultato", h.Challenge.RecordResult)
		})

		r.With(authenticate).Get("/specialita", h.Specialty.List)

		r.Route("/admin", func(r chi.Router) {
			// the client needs the registration state before anyone logs in
			r.Get("/config", h.Admin.GetConfig)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequireAdmin)

				r.Patch("/config", h.Admin.UpdateConfig)
				r.Patch("/chiudi-registrazione", h.Admin.CloseRegistration)
				r.Post("/atleti", h.Admin.BulkCreateAthletes)
				r.Patch("/atleti/{id}", h.Admin.UpdateAthlete)
				r.Delete("/atleti/{id}", h.Admin.DeleteAthlete)
				r.Get("/classifica", h.Admin.Rankings)
				r.Get("/statistiche", h.Admin.Statistics)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"route not found"}` + "\n"))
	})
}
