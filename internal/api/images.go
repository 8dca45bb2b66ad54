package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/starford/zettel/internal/imagestore"
	"github.com/starford/zettel/internal/markup"
	"github.com/starford/zettel/internal/noteservice"
)

// ImageHandler serves and accepts files of the archive's image directory.
type ImageHandler struct {
	svc *noteservice.Service
}

// NewImageHandler creates a handler over the service's current archive.
func NewImageHandler(svc *noteservice.Service) *ImageHandler {
	return &ImageHandler{svc: svc}
}

// ServeFile handles GET /images/{filename}.
func (h *ImageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	images := h.svc.Images()
	filename := chi.URLParam(r, "filename")
	abs, err := images.Resolve(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !images.Exists(filename) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/images (multipart/form-data, field "file").
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imagestore.MaxSize+1<<20)

	if err := r.ParseMultipartForm(imagestore.MaxSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := imagestore.SanitizeName(header.Filename)
	if !imagestore.IsImageFile(name) {
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported image type: "+filepath.Ext(name)))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, imagestore.MaxSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	if len(data) > imagestore.MaxSize {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large"))
		return
	}
	if err := imagestore.ValidateContent(data, filepath.Ext(name)); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := h.svc.Images().Put(name, bytes.NewReader(data)); err != nil {
		if errors.Is(err, os.ErrExist) {
			writeJSON(w, http.StatusConflict, errorBody("image already exists"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		Name:  name,
		Size:  len(data),
		URL:   "/images/" + name,
		Token: markup.ImageToken(name),
	})
}

// Referrers handles GET /api/images/{filename}/referrers.
//
//	@Summary		List notes referencing an image
//	@Tags			images
//	@Produce		json
//	@Param			filename	path		string	true	"Image file name"
//	@Success		200			{object}	ImageReferrersResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/images/{filename}/referrers [get]
func (h *ImageHandler) Referrers(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if _, err := h.svc.Images().Resolve(filename); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid image name"))
		return
	}
	titles, err := h.svc.ImageReferrers(filename)
	if err != nil {
		slog.Error("image referrers failed", slog.String("image", filename), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, ImageReferrersResponse{Name: filename, Titles: titles})
}
