package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/zettel/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ih := NewImageHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{title}", h.GetNote)
	r.Put("/notes/{title}", h.UpdateNote)
	r.Delete("/notes/{title}", h.DeleteNote)
	r.Post("/notes/{title}/rename", h.RenameNote)
	r.Get("/notes/{title}/preview", h.PreviewNote)

	// Search.
	r.Get("/search", h.Search)

	// Image upload (auth-protected). Files are served outside /api.
	r.Post("/images", ih.Upload)
	r.Get("/images/{filename}/referrers", ih.Referrers)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
