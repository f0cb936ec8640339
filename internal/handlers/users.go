package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/svsh/linkup-server/internal/middleware"
	"github.com/svsh/linkup-server/internal/models"
	"github.com/svsh/linkup-server/internal/service"
)

type UserHandler struct {
	users *service.Users
}

func NewUserHandler(users *service.Users) *UserHandler {
	return &UserHandler{users: users}
}

// ----------- Request DTOs -------------

type registerReq struct {
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type refreshReq struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type updateReq struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// -------------- AUTH ----------------------

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	writeEnvelope(w, h.users.Register(r.Context(), req.Email, req.Username, req.Password, req.Role))
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	writeEnvelope(w, h.users.Login(r.Context(), req.Username, req.Password, req.Email))
}

func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	writeEnvelope(w, h.users.RefreshToken(r.Context(), req.Token, req.RefreshToken))
}

// -------------- USERS ----------------------

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, h.users.GetAllUsers(r.Context()))
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeEnvelope(w, h.users.GetUserByID(r.Context(), id))
}

// GetOwnInfo returns the record of whoever the bearer token identifies. The
// path id is accepted for URL shape compatibility; the lookup key is the
// caller's own email.
func (h *UserHandler) GetOwnInfo(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeEnvelope(w, &models.Envelope{StatusCode: http.StatusNotFound, Message: "User not found"})
		return
	}
	writeEnvelope(w, h.users.GetInfo(r.Context(), p.Email))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if env := selfOnly(r, id, "update"); env != nil {
		writeEnvelope(w, env)
		return
	}

	var req updateReq
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	writeEnvelope(w, h.users.UpdateUser(r.Context(), id, service.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	}))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if env := selfOnly(r, id, "delete"); env != nil {
		writeEnvelope(w, env)
		return
	}
	writeEnvelope(w, h.users.DeleteUser(r.Context(), id))
}

// selfOnly guards mutating endpoints: the caller must be authenticated and be
// the target of the operation. A missing identity reads as not-found rather
// than forbidden.
func selfOnly(r *http.Request, targetID int64, action string) *models.Envelope {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return &models.Envelope{StatusCode: http.StatusNotFound, Message: "User not found"}
	}
	if p.ID != targetID {
		return &models.Envelope{StatusCode: http.StatusInternalServerError, Message: "Could not " + action + " user"}
	}
	return nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}
