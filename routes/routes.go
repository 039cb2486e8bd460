package routes

import (
	"net/http"

	_ "github.com/Dosada05/tournament-platform/docs" // регистрирует swagger.json
	"github.com/Dosada05/tournament-platform/handlers"
	"github.com/Dosada05/tournament-platform/middleware"
	"github.com/Dosada05/tournament-platform/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Dispute    *handlers.DisputeHandler
	Upload     *handlers.UploadHandler
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	Currency   *handlers.CurrencyHandler
	WebSocket  *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, jwtSecret string, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	staff := middleware.RequireRole(models.RoleValidator, models.RoleAdmin)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
	})

	// Публичные маршруты
	router.Get("/tournaments/{tournamentID}", h.Tournament.GetTournament)
	router.Get("/tournaments/{tournamentID}/bracket", h.Tournament.GetBracket)
	router.With(middleware.AuthenticateWebSocket([]byte(jwtSecret))).Get("/ws/{room}", h.WebSocket.ServeWs)

	router.Route("/currency", func(r chi.Router) {
		r.Get("/rates", h.Currency.GetRates)
		r.Get("/convert", h.Currency.Convert)
		r.With(authenticate, middleware.RequireRole(models.RoleAdmin)).Post("/rates/refresh", h.Currency.RefreshRates)
	})

	// Защищенные маршруты
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/matches/recent-for-dispute", h.Match.RecentForDispute)
		r.Post("/uploads/proof", h.Upload.UploadProof)

		r.Route("/disputes", func(r chi.Router) {
			r.With(middleware.RequireRole(models.RolePlayer)).Post("/", h.Dispute.Create)
			r.Get("/user", h.Dispute.ListForUser)

			r.Group(func(r chi.Router) {
				r.Use(staff)
				r.Get("/validator", h.Dispute.ListForValidator)
				r.Put("/{disputeID}/status", h.Dispute.Resolve)
			})
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Use(staff)
			r.Get("/", h.Dispute.ListRewards)
			r.Post("/{rewardID}/collect", h.Dispute.CollectReward)
		})
	})
}
