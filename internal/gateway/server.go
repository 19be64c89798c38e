package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", g.handleHealth())
	r.Get("/status", g.handleStatus())
	r.Handle("/metrics", MetricsHandler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", g.handleChat())
		r.Post("/sessions", g.handleNewSession())
		r.Post("/messages", g.handleStoreMessage())
		r.Get("/history", g.handleHistory())
		r.Post("/history/clear", g.handleClearHistory())
		r.Post("/history/delete-recent", g.handleDeleteRecent())
		r.Get("/mode", g.handleGetMode())
		r.Put("/mode", g.handleSetMode())
	})

	return r
}
