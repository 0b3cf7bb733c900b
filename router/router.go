package router

import (
	"context"
	"net/http"
	"time"

	"haven/internal/account"
	"haven/internal/chat"
	"haven/internal/comfort"
	"haven/internal/note"
	"haven/internal/poem"
	"haven/middleware"
	"haven/pkg/httpx"
	"haven/socket"
	"haven/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Store          store.Store
	Hub            *socket.Hub
	JWTSecret      string
	AllowedOrigins []string
	// Responder defaults to the keyword comfort selector.
	Responder chat.Responder
}

func Setup(d Deps) http.Handler {
	var feed socket.Publisher = socket.Discard
	if d.Hub != nil {
		feed = d.Hub
	}
	responder := d.Responder
	if responder == nil {
		responder = comfort.New()
	}

	accounts := account.NewHandler(account.NewService(d.Store))
	notes := note.NewHandler(note.NewService(d.Store, feed))
	poems := poem.NewHandler(poem.NewService(d.Store, feed))
	chats := chat.NewHandler(chat.NewService(d.Store, responder, feed))
	auth := middleware.AuthMiddleware(d.JWTSecret)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			httpx.RespondError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(auth)
		api.Use(accounts.EnsureUser)

		accounts.RegisterRoutes(api)
		notes.RegisterRoutes(api)
		poems.RegisterRoutes(api)
		chats.RegisterRoutes(api)
	})

	if d.Hub != nil {
		r.With(auth).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			socket.ServeWs(d.Hub, w, r, middleware.UserID(r.Context()))
		})
	}

	return r
}
