package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/zettel/internal/apperr"
	"github.com/starford/zettel/internal/checksum"
	"github.com/starford/zettel/internal/noteservice"
)

const maxNoteBytes = 10 << 20

// Handler holds note route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteTitle extracts the title path parameter, accepting encoded titles
// such as "my%20note".
func noteTitle(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, op, title string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("note already exists"))
	case errors.Is(err, apperr.ErrInvalidTitle):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid title"))
	default:
		slog.Error(op+" failed", slog.String("title", title), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func (h *Handler) detail(title string) (NoteDetail, error) {
	body, err := h.svc.Get(title)
	if err != nil {
		return NoteDetail{}, err
	}
	meta, err := h.svc.Metadata(title)
	if err != nil {
		return NoteDetail{}, err
	}
	return NoteDetail{
		Title:     title,
		Body:      body,
		Checksum:  meta.Checksum,
		UpdatedAt: meta.UpdatedAt,
	}, nil
}

func (h *Handler) listItems(titles []string) []NoteListItem {
	items := make([]NoteListItem, 0, len(titles))
	for _, t := range titles {
		meta, err := h.svc.Metadata(t)
		if err != nil {
			// Removed between listing and lookup.
			continue
		}
		items = append(items, NoteListItem{Title: meta.Title, Path: meta.Path, UpdatedAt: meta.UpdatedAt})
	}
	return items
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes in display order, optionally filtered
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	false	"Case-insensitive substring filter"
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	titles := h.svc.Titles()
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		var err error
		titles, err = h.svc.Search(q)
		if err != nil {
			writeServiceError(w, "list notes", "", err)
			return
		}
	}
	items := h.listItems(titles)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{title}.
//
//	@Summary		Get a single note by title
//	@Tags			notes
//	@Produce		json
//	@Param			title	path		string	true	"Note title"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	title := noteTitle(r)
	note, err := h.detail(title)
	if err != nil {
		writeServiceError(w, "get note", title, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNoteBytes)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	title, err := h.svc.Create(req.Title)
	if err != nil {
		writeServiceError(w, "create note", req.Title, err)
		return
	}
	if req.Body != "" {
		if _, err := h.svc.Put(title, req.Body); err != nil {
			writeServiceError(w, "create note", title, err)
			return
		}
	}
	note, err := h.detail(title)
	if err != nil {
		writeServiceError(w, "create note", title, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{title}.
//
//	@Summary		Save a note body with optional optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			title		path	string				true	"Note title"
//	@Param			If-Match	header	string				false	"SHA-256 checksum of the body being replaced"
//	@Param			body		body	UpdateNoteRequest	true	"New body"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNoteBytes)
	title := noteTitle(r)
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	current, err := h.svc.Get(title)
	if err != nil {
		writeServiceError(w, "update note", title, err)
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)
	if ifMatch != "" && ifMatch != checksum.Sum([]byte(current)) {
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		return
	}

	if _, err := h.svc.Put(title, req.Body); err != nil {
		writeServiceError(w, "update note", title, err)
		return
	}
	note, err := h.detail(title)
	if err != nil {
		writeServiceError(w, "update note", title, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{title}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			title	path	string	true	"Note title"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	title := noteTitle(r)
	if err := h.svc.Delete(title); err != nil {
		writeServiceError(w, "delete note", title, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameNote handles POST /api/notes/{title}/rename.
//
//	@Summary		Rename a note; an existing target title is rejected
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			title	path		string				true	"Current title"
//	@Param			body	body		RenameNoteRequest	true	"New title"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title}/rename [post]
func (h *Handler) RenameNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNoteBytes)
	title := noteTitle(r)
	var req RenameNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	renamed, err := h.svc.Rename(title, req.Title)
	if err != nil {
		writeServiceError(w, "rename note", title, err)
		return
	}
	note, err := h.detail(renamed)
	if err != nil {
		writeServiceError(w, "rename note", renamed, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// PreviewNote handles GET /api/notes/{title}/preview.
//
//	@Summary		Render a note's saved body
//	@Tags			notes
//	@Produce		json
//	@Param			title	path		string	true	"Note title"
//	@Success		200		{object}	PreviewResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{title}/preview [get]
func (h *Handler) PreviewNote(w http.ResponseWriter, r *http.Request) {
	title := noteTitle(r)
	body, err := h.svc.Get(title)
	if err != nil {
		writeServiceError(w, "preview note", title, err)
		return
	}
	doc := h.svc.Render(body)
	writeJSON(w, http.StatusOK, PreviewResponse{Title: title, Document: doc, Text: doc.PlainText(), Raw: doc.Raw()})
}

// Search handles GET /api/search.
//
//	@Summary		Case-insensitive substring search over titles and bodies
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	titles, err := h.svc.Search(q)
	if err != nil {
		writeServiceError(w, "search", "", err)
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Titles: titles})
}
