package tools

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the tool endpoints the model's tools are backed by
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/api/tools", func(r chi.Router) {
		r.Get("/list-files", h.ListFiles)
		r.Post("/search", h.Search)
	})
}
