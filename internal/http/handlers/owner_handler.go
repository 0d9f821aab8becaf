// Owner moderation and dashboard HTTP handlers.
//
// Owner surface:
//   - GET  /api/sino/users          (accounts with block state)
//   - POST /api/sino/block-user     (block + forced logout)
//   - POST /api/sino/unblock-user   (lift block, retract pending logout)
//   - POST /api/sino/delete-user    (cascade delete + forced logout)
//   - GET  /api/sino/all-orders     (every order)
//   - GET  /api/sino/stats          (lifetime summary)
//
// Admin dashboard:
//   - GET  /api/stats               (today's summary + status breakdown)
//   - GET  /api/pickup-stats        (today's pickup summary)
//   - GET  /api/user-stats/:id      (one customer's lifetime summary)
//   - GET  /api/user-stats          (the current customer's own summary)
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sino99/cafe-safar-ver1/internal/services"
	"github.com/sino99/cafe-safar-ver1/internal/utils"
)

// UserActionRequest names the account a moderation action targets.
type UserActionRequest struct {
	UserID uint   `json:"userId" binding:"required"`
	Reason string `json:"reason"`
}

// targetUserID parses the :id path parameter of user-scoped endpoints.
func targetUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Некорректный ID пользователя")
		return 0, false
	}
	return uint(id), true
}

// ListUsers returns every non-owner account with its block state.
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.accountSvc.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Ошибка при загрузке пользователей")
		return
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}

// BlockUser records a block and force-logs the account out.
func (h *Handlers) BlockUser(c *gin.Context) {
	var req UserActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Укажите пользователя")
		return
	}
	forced, err := h.accountSvc.Block(c.Request.Context(), req.UserID, req.Reason)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Пользователь не найден")
		return
	case errors.Is(err, services.ErrAlreadyBlocked):
		fail(c, http.StatusConflict, ErrCodeConflict, "Пользователь уже заблокирован")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при блокировке")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "forcedLogout": forced})
}

// UnblockUser lifts a block and retracts any pending forced logout.
func (h *Handlers) UnblockUser(c *gin.Context) {
	var req UserActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Укажите пользователя")
		return
	}
	n, err := h.accountSvc.Unblock(c.Request.Context(), req.UserID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при разблокировке")
		return
	}
	if n == 0 {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Пользователь не заблокирован")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true})
}

// DeleteUser removes the account and everything it owns.
func (h *Handlers) DeleteUser(c *gin.Context) {
	var req UserActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Укажите пользователя")
		return
	}
	forced, err := h.accountSvc.Delete(c.Request.Context(), req.UserID)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Пользователь не найден")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при удалении пользователя")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "forcedLogout": forced})
}

// AllOrders returns every order for the owner panel.
func (h *Handlers) AllOrders(c *gin.Context) {
	orders, err := h.orderSvc.List(c.Request.Context(), nil)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Ошибка при загрузке заказов")
		return
	}
	views := make([]services.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, services.NewOrderView(o))
	}
	ok(c, http.StatusOK, gin.H{"orders": views})
}

// OwnerStats returns the lifetime order summary.
func (h *Handlers) OwnerStats(c *gin.Context) {
	stats, err := h.statsSvc.AllTime(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при расчете статистики")
		return
	}
	ok(c, http.StatusOK, stats)
}

// DailyStats returns today's summary with the per-status breakdown.
func (h *Handlers) DailyStats(c *gin.Context) {
	report, err := h.statsSvc.Daily(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при расчете статистики")
		return
	}
	ok(c, http.StatusOK, report)
}

// PickupStats returns today's pickup summary with the latest pickup orders.
func (h *Handlers) PickupStats(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	report, err := h.statsSvc.Pickup(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при расчете статистики")
		return
	}
	ok(c, http.StatusOK, report)
}

// UserStatsByID returns one customer's lifetime summary, for the admin panel.
func (h *Handlers) UserStatsByID(c *gin.Context) {
	id, okID := targetUserID(c)
	if !okID {
		return
	}
	stats, unread, err := h.accountSvc.UserStats(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при расчете статистики")
		return
	}
	ok(c, http.StatusOK, gin.H{"stats": stats, "unread_notifications": unread})
}

// MyStats returns the current customer's own lifetime summary.
func (h *Handlers) MyStats(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	stats, unread, err := h.accountSvc.UserStats(c.Request.Context(), p.UserID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при расчете статистики")
		return
	}
	ok(c, http.StatusOK, gin.H{"stats": stats, "unread_notifications": unread})
}
