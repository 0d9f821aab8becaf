// Account HTTP handlers.
//
// This file exposes the authentication surface:
//   - POST /register            (customer sign-up, auto sign-in)
//   - POST /login               (customer sign-in by login or phone)
//   - POST /admin/login         (admin panel sign-in)
//   - POST /sino/login          (owner panel sign-in)
//   - GET  /logout              (destroy session; shared by all roles)
//   - GET  /api/me              (current principal)
//   - GET  /api/admin/check     (admin session probe)
//   - GET  /api/sino/check      (owner session probe)
//   - POST /api/change-password (rotate the customer's password)
//
// Sessions are signed cookies; the guard in the middleware package
// re-validates them per request, so these handlers only mint and destroy.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
	"github.com/sino99/cafe-safar-ver1/internal/services"
)

//
// DTOs
//

// RegisterRequest is the JSON payload for customer sign-up.
type RegisterRequest struct {
	Login           string `json:"login" binding:"required"`
	Phone           string `json:"phone" binding:"required"`
	Password        string `json:"password" binding:"required,min=4"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// LoginRequest is the JSON payload for sign-in. Login accepts either the
// account login or the phone number.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest rotates the current principal's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=4"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID    uint   `json:"id"`
	Login string `json:"login"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Login: u.Login, Phone: u.Phone, Role: u.Role}
}

//
// Handlers
//

// Register creates a customer account and signs it in.
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Заполните все поля")
		return
	}

	u, err := h.accountSvc.Register(c.Request.Context(), req.Login, req.Phone, req.Password, req.ConfirmPassword)
	switch {
	case errors.Is(err, services.ErrPasswordMismatch):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Пароли не совпадают")
		return
	case errors.Is(err, services.ErrLoginTaken):
		fail(c, http.StatusConflict, ErrCodeLoginTaken, "Логин или телефон уже заняты")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Заполните все поля")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при регистрации")
		return
	}

	if err := h.sessions.SignIn(c, u); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при создании сессии")
		return
	}
	ok(c, http.StatusCreated, gin.H{"success": true, "user": userResponse(u)})
}

// Login signs a customer in by login or phone.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Введите логин и пароль")
		return
	}

	u, err := h.accountSvc.Login(c.Request.Context(), req.Login, req.Password)
	switch {
	case errors.Is(err, services.ErrAccountBlocked):
		fail(c, http.StatusForbidden, ErrCodeAccountBlocked, "Ваш аккаунт заблокирован администратором")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Неверный логин или пароль")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при входе")
		return
	}

	if err := h.sessions.SignIn(c, u); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при создании сессии")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "user": userResponse(u)})
}

// panelLogin is the shared admin/owner sign-in path.
func (h *Handlers) panelLogin(c *gin.Context, role string) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Введите логин и пароль")
		return
	}

	u, err := h.accountSvc.LoginWithRole(c.Request.Context(), req.Login, req.Password, role)
	if errors.Is(err, services.ErrInvalidCredentials) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Неверный логин или пароль")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при входе")
		return
	}

	if err := h.sessions.SignIn(c, u); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при создании сессии")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "user": userResponse(u)})
}

// AdminLogin signs the admin panel in.
func (h *Handlers) AdminLogin(c *gin.Context) { h.panelLogin(c, domain.RoleAdmin) }

// OwnerLogin signs the owner panel in.
func (h *Handlers) OwnerLogin(c *gin.Context) { h.panelLogin(c, domain.RoleOwner) }

// Logout destroys the session. Shared by all three roles.
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при выходе")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true})
}

// Me returns the current principal.
func (h *Handlers) Me(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	ok(c, http.StatusOK, gin.H{
		"id":    p.UserID,
		"login": p.Login,
		"role":  p.Role,
	})
}

// roleCheck reports whether the session carries the required role. It backs
// the /api/admin/check and /api/sino/check probes the panels poll on load.
func (h *Handlers) roleCheck(c *gin.Context, roles ...string) {
	p, okP := principal(c)
	if !okP {
		ok(c, http.StatusOK, gin.H{"authenticated": false})
		return
	}
	for _, r := range roles {
		if p.Role == r {
			ok(c, http.StatusOK, gin.H{"authenticated": true, "login": p.Login, "role": p.Role})
			return
		}
	}
	ok(c, http.StatusOK, gin.H{"authenticated": false})
}

// AdminCheck probes for a live admin session.
func (h *Handlers) AdminCheck(c *gin.Context) {
	h.roleCheck(c, domain.RoleAdmin, domain.RoleOwner)
}

// OwnerCheck probes for a live owner session.
func (h *Handlers) OwnerCheck(c *gin.Context) {
	h.roleCheck(c, domain.RoleOwner)
}

// ChangePassword rotates the customer's password after verifying the current
// one.
func (h *Handlers) ChangePassword(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Заполните все поля")
		return
	}

	err := h.accountSvc.ChangePassword(c.Request.Context(), p.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Неверный текущий пароль")
		return
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Пользователь не найден")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при смене пароля")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true})
}
