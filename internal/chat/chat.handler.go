package chat

import (
	"bytes"
	"encoding/json"
	"net/http"

	"haven/middleware"
	"haven/pkg/httpx"
	"haven/store"

	"github.com/go-chi/chi/v5"
)

// authorFlag decodes isUser, which older clients send as "true"/"false".
type authorFlag struct {
	set    bool
	author store.Author
}

func (f *authorFlag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", `"true"`:
		*f = authorFlag{set: true, author: store.AuthorUser}
	case "false", `"false"`:
		*f = authorFlag{set: true, author: store.AuthorBot}
	case "null":
		*f = authorFlag{}
	default:
		return httpx.Invalid("isUser must be true or false")
	}
	return nil
}

type postRequest struct {
	Message string     `json:"message"`
	IsUser  authorFlag `json:"isUser"`
}

func (p postRequest) input() store.ChatInput {
	in := store.ChatInput{Message: p.Message, Author: store.AuthorUser}
	if p.IsUser.set {
		in.Author = p.IsUser.author
	}
	return in
}

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat/messages", func(r chi.Router) {
		r.Get("/", h.History)
		r.Post("/", h.Post)
		r.Delete("/", h.Clear)
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Service.History(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		httpx.Fail(w, r, err, httpx.Messages{Internal: "Failed to fetch chat messages"})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, msgs)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, r, err, httpx.Messages{})
		return
	}

	out, err := h.Service.Post(r.Context(), middleware.UserID(r.Context()), req.input())
	if err != nil {
		httpx.Fail(w, r, err, httpx.Messages{Internal: "Failed to send message"})
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, out)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Clear(r.Context(), middleware.UserID(r.Context())); err != nil {
		httpx.Fail(w, r, err, httpx.Messages{Internal: "Failed to clear chat history"})
		return
	}
	httpx.NoContent(w)
}

var _ json.Unmarshaler = (*authorFlag)(nil)
