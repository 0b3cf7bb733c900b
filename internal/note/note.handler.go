package note

import (
	"net/http"

	"haven/middleware"
	"haven/pkg/httpx"
	"haven/store"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Service.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		httpx.Fail(w, r, err, httpx.Messages{Internal: "Failed to fetch notes"})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, notes)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		httpx.Fail(w, r, err, httpx.Messages{NotFound: "Note not found", Internal: "Failed to fetch note"})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, n)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in store.NoteInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(w, r, err, httpx.Messages{})
		return
	}

	n, err := h.Service.Create(r.Context(), middleware.UserID(r.Context()), in)
	if err != nil {
		httpx.Fail(w, r, err, httpx.Messages{Internal: "Failed to create note"})
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, n)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch store.NotePatch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Fail(w, r, err, httpx.Messages{})
		return
	}

	n, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()), patch)
	if err != nil {
		httpx.Fail(w, r, err, httpx.Messages{NotFound: "Note not found", Internal: "Failed to update note"})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, n)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r.Context()))
	if err != nil {
		httpx.Fail(w, r, err, httpx.Messages{NotFound: "Note not found", Internal: "Failed to delete note"})
		return
	}
	httpx.NoContent(w)
}
