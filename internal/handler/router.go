package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talktotj/chat/backend/internal/handler/chat"
	"github.com/talktotj/chat/backend/internal/handler/web"
	middlewarePkg "github.com/talktotj/chat/backend/internal/middleware"
	"github.com/talktotj/chat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to the relay and the widget page.
func NewRouter(responder chat.Responder, page *web.Handler, allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if page != nil {
		page.RegisterRoutes(r)
	}

	r.Route("/api", func(api chi.Router) {
		chat.New(responder).RegisterRoutes(api)
	})

	return r
}
