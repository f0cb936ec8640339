package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/svsh/linkup-server/internal/service"
)

// Handler wires HTTP routes to account operations.
type Handler struct {
	Users *UserHandler
}

func NewHandler(users *service.Users) *Handler {
	return &Handler{Users: NewUserHandler(users)}
}

// RegisterRoutes mounts the full API surface on r. The session filter is
// installed by the caller so that it wraps every route, public ones included.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Users.Register)
			r.Post("/login", h.Users.Login)
			r.Post("/refreshToken", h.Users.Refresh)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Users.GetAll)
			r.Get("/{id}", h.Users.GetOwnInfo)
			r.Get("/{id}/get", h.Users.GetByID)
			r.Put("/{id}/update", h.Users.Update)
			r.Delete("/{id}/delete", h.Users.Delete)
		})
	})
}
