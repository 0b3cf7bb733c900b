package account

import (
	"net/http"

	"haven/middleware"
	"haven/pkg/httpx"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/user", h.CurrentUser)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.Current(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		httpx.Fail(w, r, err, httpx.Messages{NotFound: "User not found", Internal: "Failed to fetch user"})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, u)
}

// EnsureUser makes sure the authenticated caller has a users row before any
// journal entry referencing it is written. It must run after
// middleware.AuthMiddleware.
func (h *Handler) EnsureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			httpx.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err := h.Service.Ensure(r.Context(), id); err != nil {
			httpx.Fail(w, r, err, httpx.Messages{Internal: "Failed to fetch user"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
