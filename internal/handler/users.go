package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/shopnest/internal/apperror"
	"github.com/mmeshcher/shopnest/internal/model"
	"github.com/mmeshcher/shopnest/internal/service"
)

type registerRequest struct {
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Avatar   *model.Image `json:"avatar"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type passwordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type profileRequest struct {
	Name   string       `json:"name"`
	Email  string       `json:"email"`
	Avatar *model.Image `json:"avatar"`
}

type roleRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// sendToken выпускает JWT, кладёт его в cookie и возвращает вместе с профилем.
func (h *Handler) sendToken(w http.ResponseWriter, r *http.Request, status int, u *model.User) {
	token, err := h.authMiddleware.IssueToken(u.ID, u.Role)
	if err != nil {
		h.fail(w, r, apperror.Internal("Failed to issue token", err))
		return
	}

	h.authMiddleware.SetAuthCookie(w, token)
	writeJSON(w, status, envelope{"user": u, "token": token})
}

// Register обрабатывает POST /api/v1/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.service.RegisterUser(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendToken(w, r, http.StatusCreated, u)
}

// Login обрабатывает POST /api/v1/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendToken(w, r, http.StatusOK, u)
}

// Logout обрабатывает GET /api/v1/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	writeJSON(w, http.StatusOK, envelope{"message": "Logged Out"})
}

// ForgotPassword обрабатывает POST /api/v1/password/forgot.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email, resetURLBase(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "Email sent to " + req.Email + " successfully"})
}

// ResetPassword обрабатывает PUT /api/v1/password/reset/{token}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password, req.ConfirmPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendToken(w, r, http.StatusOK, u)
}

// Me обрабатывает GET /api/v1/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.service.GetUserDetails(r.Context(), p.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"user": u})
}

// UpdatePassword обрабатывает PUT /api/v1/password/update.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.service.UpdatePassword(r.Context(), p.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.sendToken(w, r, http.StatusOK, u)
}

// UpdateProfile обрабатывает PUT /api/v1/me/update.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = h.service.UpdateProfile(r.Context(), p.ID, service.ProfileInput{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: req.Avatar,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

// ListUsers обрабатывает GET /api/v1/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"users": users})
}

// GetUser обрабатывает GET /api/v1/admin/users/{id}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"user": u})
}

// UpdateUserRole обрабатывает PUT /api/v1/admin/users/{id}.
func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = h.service.UpdateUserRole(r.Context(), id, service.RoleInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nil)
}

// DeleteUser обрабатывает DELETE /api/v1/admin/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"message": "User Deleted Successfully"})
}

// resetURLBase собирает адрес страницы сброса пароля из хоста запроса.
func resetURLBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/api/v1/password/reset"
}
