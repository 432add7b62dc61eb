package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hughigh/loginserver/internal/services"
	"github.com/hughigh/loginserver/internal/store"
	"github.com/hughigh/loginserver/types"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

// AdminHandler provides user management and audit inspection endpoints.
// Every route is admin-only; the role gate is mounted by AdminRouter.
type AdminHandler struct {
	users *services.UserService
	audit *services.AuditService
}

func NewAdminHandler(users *services.UserService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{users: users, audit: audit}
}

// AdminRouter registers admin routes on the given router.
func AdminRouter(r chi.Router, handler *AdminHandler, guard *SessionGuard) {
	r.Use(guard.RequireAuth)
	r.Use(guard.RequireRole(types.RoleAdmin))

	r.Get("/users", handler.ListUsers)
	r.Post("/users", handler.CreateUser)
	r.Get("/users/{id}", handler.GetUser)
	r.Put("/users/{id}", handler.UpdateUser)
	r.Delete("/users/{id}", handler.DeleteUser)
	r.Get("/auth-events", handler.ListAuthEvents)
}

// ListUsers returns one page of users with the total count.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)

	users, total, err := h.users.List(r.Context(), skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, UserListResponse{Users: users, Total: total})
}

// CreateUser registers a new account ahead of the user's first login.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if req.Role == nil || !(*req.Role).Valid() {
		writeError(w, http.StatusBadRequest, "role must be 0 (student), 1 (teacher), or 2 (admin)")
		return
	}

	user, err := h.users.Create(r.Context(), services.CreateUser{
		Email:     req.Email,
		Role:      *req.Role,
		Name:      req.Name,
		StudentID: req.StudentID,
		ClassName: req.ClassName,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// GetUser returns one user record.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser applies a partial update to a user record.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Role != nil && !(*req.Role).Valid() {
		writeError(w, http.StatusBadRequest, "role must be 0 (student), 1 (teacher), or 2 (admin)")
		return
	}

	user, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), services.UpdateUser{
		Email:     req.Email,
		Role:      req.Role,
		Name:      req.Name,
		StudentID: req.StudentID,
		ClassName: req.ClassName,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusBadRequest, "email already registered")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes a user record. Admins cannot delete themselves.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	err := h.users.Delete(r.Context(), chi.URLParam(r, "id"), actor.ID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, services.ErrSelfDelete):
			writeError(w, http.StatusBadRequest, "cannot delete your own account")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete user")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAuthEvents returns one page of audit events, newest first, optionally
// filtered by event_type.
func (h *AdminHandler) ListAuthEvents(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	eventType := r.URL.Query().Get("event_type")

	events, total, err := h.audit.List(r.Context(), skip, limit, eventType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list auth events")
		return
	}
	writeJSON(w, http.StatusOK, AuthEventListResponse{Events: events, Total: total})
}

type CreateUserRequest struct {
	Email     string      `json:"email"`
	Role      *types.Role `json:"role"`
	Name      *string     `json:"name"`
	StudentID *string     `json:"student_id"`
	ClassName *string     `json:"class_name"`
}

type UpdateUserRequest struct {
	Email     *string     `json:"email"`
	Role      *types.Role `json:"role"`
	Name      *string     `json:"name"`
	StudentID *string     `json:"student_id"`
	ClassName *string     `json:"class_name"`
}

type UserListResponse struct {
	Users []types.User `json:"users"`
	Total int          `json:"total"`
}

type AuthEventListResponse struct {
	Events []types.AuthEvent `json:"events"`
	Total  int               `json:"total"`
}

func pageParams(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	if skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return skip, limit
}
