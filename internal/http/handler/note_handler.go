package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"papertrail-server/internal/http/middleware"
	"papertrail-server/internal/http/response"
	"papertrail-server/internal/repository"
	"papertrail-server/internal/service"
)

type NoteHandler struct {
	notes *service.NoteService
}

func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}
	note, err := h.notes.Create(r.Context(), auth.UserID, req.Title, req.Content)
	if err != nil {
		response.Internal(w, r)
		return
	}
	response.JSON(w, r, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	notes, err := h.notes.List(r.Context(), auth.UserID)
	if err != nil {
		response.Internal(w, r)
		return
	}
	response.JSON(w, r, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	note, err := h.notes.Get(r.Context(), auth.UserID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "note not found", nil)
			return
		}
		response.Internal(w, r)
		return
	}
	response.JSON(w, r, http.StatusOK, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	req, ok := decodeNote(w, r)
	if !ok {
		return
	}
	note, err := h.notes.Update(r.Context(), auth.UserID, chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "note not found", nil)
			return
		}
		response.Internal(w, r)
		return
	}
	response.JSON(w, r, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, r)
		return
	}
	if err := h.notes.Delete(r.Context(), auth.UserID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "note not found", nil)
			return
		}
		response.Internal(w, r)
		return
	}
	response.NoContent(w)
}

func decodeNote(w http.ResponseWriter, r *http.Request) (noteRequest, bool) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeValidation, "malformed request body", nil)
		return req, false
	}
	if strings.TrimSpace(req.Title) == "" {
		response.Error(w, r, http.StatusBadRequest, response.CodeValidation, "invalid request body",
			map[string]string{"title": "title is required"})
		return req, false
	}
	return req, true
}
