package api

import (
	"time"

	"github.com/starford/zettel/internal/render"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title string `json:"title" example:"Shopping" validate:"required"`
	Body  string `json:"body" example:"# List\n**milk**"`
}

// UpdateNoteRequest is the request body for saving a note.
type UpdateNoteRequest struct {
	Body string `json:"body" example:"# Updated\nContent"`
}

// RenameNoteRequest is the request body for renaming a note.
type RenameNoteRequest struct {
	Title string `json:"title" example:"Groceries" validate:"required"`
}

// NoteDetail is the full note response type.
type NoteDetail struct {
	Title     string    `json:"title" example:"Shopping" validate:"required"`
	Body      string    `json:"body" validate:"required"`
	Checksum  string    `json:"checksum" validate:"required"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Title     string    `json:"title" example:"Shopping" validate:"required"`
	Path      string    `json:"path" example:"Shopping.md" validate:"required"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListResponse wraps note listings in display order.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps the titles matching a query, in display order.
type SearchResponse struct {
	Titles []string `json:"titles" validate:"required"`
}

// PreviewResponse is the rendered form of a note.
type PreviewResponse struct {
	Title    string           `json:"title" validate:"required"`
	Document *render.Document `json:"document" validate:"required"`
	Text     string           `json:"text"`
	Raw      string           `json:"raw"`
}

// ImageReferrersResponse lists the notes whose saved body references an image.
type ImageReferrersResponse struct {
	Name   string   `json:"name" example:"cat.png" validate:"required"`
	Titles []string `json:"titles" validate:"required"`
}

// ImageUploadResponse describes a stored image.
type ImageUploadResponse struct {
	Name  string `json:"name" example:"3fa2c1d0.png" validate:"required"`
	Size  int    `json:"size" validate:"required"`
	URL   string `json:"url" example:"/images/3fa2c1d0.png" validate:"required"`
	Token string `json:"token" example:"![3fa2c1d0.png]" validate:"required"`
}
