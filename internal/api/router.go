package api

import (
	"net/http"

	"github.com/dkrasnove/faunaguess/internal/api/handlers"
	mw "github.com/dkrasnove/faunaguess/internal/api/middleware"
	"github.com/dkrasnove/faunaguess/internal/config"
	"github.com/dkrasnove/faunaguess/internal/game"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router for lifecycle management.
type App struct {
	Router *chi.Mux
	Game   *game.Service
}

func NewApp(svc *game.Service, logger *zap.Logger) *App {
	sessionHandler := handlers.NewSessionHandler(svc)
	knowledgeHandler := handlers.NewKnowledgeHandler(svc)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", sessionHandler.Create)
		r.Get("/sessions/{id}/question", sessionHandler.NextQuestion)
		r.Post("/sessions/{id}/answers", sessionHandler.SubmitAnswer)
		r.Get("/sessions/{id}/guess", sessionHandler.Guess)
		r.Post("/sessions/{id}/outcome", sessionHandler.Outcome)
		r.Delete("/sessions/{id}", sessionHandler.Abandon)

		r.Get("/animals", knowledgeHandler.ListAnimals)
		r.Get("/questions", knowledgeHandler.ListQuestions)
		r.Get("/stats", knowledgeHandler.Stats)
	})

	return &App{Router: r, Game: svc}
}
