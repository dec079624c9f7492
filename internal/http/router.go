package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"legalrag-ai/internal/handlers"
	"legalrag-ai/internal/service"
	"legalrag-ai/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	AnswerService service.AnswerService
	Sessions      storage.SessionStore
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	answerHandler := handlers.NewAnswerHandler(deps.AnswerService)
	sessionsHandler := handlers.NewSessionsHandler(deps.Sessions)
	renderHandler := handlers.NewRenderHandler()

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/answer", answerHandler)
		r.Method(http.MethodPost, "/render", renderHandler)

		r.Post("/sessions", sessionsHandler.Create)
		r.Get("/sessions/{id}", sessionsHandler.Get)
		r.Put("/sessions/{id}", sessionsHandler.Put)
		r.Delete("/sessions/{id}", sessionsHandler.Delete)
	})

	r.Get("/healthz", handlers.Health)

	return r
}
