package routes

import (
	"github.com/gladiator-fit/backend/handlers"
	"github.com/gladiator-fit/backend/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes mounts every API endpoint on the router. Auth endpoints are
// public, everything else requires a bearer token.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	battleHandler *handlers.BattleHandler,
	voteHandler *handlers.VoteHandler,
	challengeHandler *handlers.ChallengeHandler,
	uploadHandler *handlers.UploadHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(jwtSecret)))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateProfile)
			r.Get("/me/stats", userHandler.Stats)
		})

		r.Get("/leaderboard", userHandler.Leaderboard)

		r.Route("/battles", func(r chi.Router) {
			r.Post("/battle-now", battleHandler.BattleNow)
			r.Get("/active", battleHandler.ListLive)
			r.Get("/{battleID}", battleHandler.GetDetail)
			r.Post("/{battleID}/submit-video", battleHandler.SubmitVideo)
			r.Post("/{battleID}/video", uploadHandler.UploadVideo)
		})

		r.Route("/votes", func(r chi.Router) {
			r.Get("/pending", voteHandler.ListPending)
			r.Get("/history", voteHandler.History)
			r.Post("/{battleID}/vote", voteHandler.SubmitVote)
		})

		r.Route("/challenges", func(r chi.Router) {
			r.Get("/", challengeHandler.List)
			r.Get("/daily", challengeHandler.DailyPool)
			r.Get("/{challengeID}", challengeHandler.Get)
		})

		r.Get("/ws/battles/{battleID}", webSocketHandler.SubscribeBattle)
	})
}
