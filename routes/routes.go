package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/pitchside/efootball-arena/handlers"
	"github.com/pitchside/efootball-arena/middleware"
	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/services"
)

func SetupRoutes(
	router *chi.Mux,
	authService services.AuthService,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	paymentHandler *handlers.PaymentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(authService)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", authHandler.RegisterHandler)
	router.Post("/auth/login", authHandler.LoginHandler)

	// Payment gateway callback cannot carry a bearer token.
	router.Post("/payments/callback", paymentHandler.CallbackHandler)

	router.Route("/players", func(r chi.Router) {
		r.Get("/{playerID}", playerHandler.GetProfileHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", playerHandler.GetMeHandler)
			r.Put("/{playerID}", playerHandler.UpdateProfileHandler)
			r.Post("/{playerID}/avatar", playerHandler.UploadAvatarHandler)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", playerHandler.ListPlayersHandler)
				r.Patch("/{playerID}/active", playerHandler.SetActiveHandler)
			})
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListTournamentsHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetTournamentHandler)
		r.Get("/{tournamentID}/participants", tournamentHandler.ListParticipantsHandler)
		r.Get("/{tournamentID}/matches", matchHandler.ListTournamentMatchesHandler)
		r.Get("/{tournamentID}/standings", tournamentHandler.StandingsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/register", tournamentHandler.RegisterParticipantHandler)
			r.Post("/{tournamentID}/check-in", tournamentHandler.CheckInHandler)
			r.Post("/{tournamentID}/entry-fee", paymentHandler.InitiateEntryFeeHandler)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", tournamentHandler.CreateTournamentHandler)
				r.Put("/{tournamentID}", tournamentHandler.UpdateTournamentHandler)
				r.Patch("/{tournamentID}/status", tournamentHandler.ChangeStatusHandler)
				r.Post("/{tournamentID}/fixtures", tournamentHandler.GenerateFixturesHandler)
			})
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/score", matchHandler.SubmitScoreHandler)
			r.Post("/{matchID}/evidence", matchHandler.UploadEvidenceHandler)
			r.Post("/{matchID}/disputes", matchHandler.RaiseDisputeHandler)
			// Participant-or-admin check lives in the match service.
			r.Patch("/{matchID}/schedule", matchHandler.RescheduleMatchHandler)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/{matchID}/verify", matchHandler.VerifyResultHandler)
			})
		})
	})

	router.Route("/disputes", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Post("/{disputeID}/resolve", matchHandler.ResolveDisputeHandler)
	})

	router.Route("/participants", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Post("/{participantID}/disqualify", tournamentHandler.DisqualifyParticipantHandler)
	})

	router.Get("/leaderboard", leaderboardHandler.GetLeaderboardHandler)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/payments", paymentHandler.ListMyPaymentsHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
