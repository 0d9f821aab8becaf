// Notification HTTP handlers.
//
// The two streams have disjoint endpoints:
//   - GET    /api/notifications                 (admin stream, with order context)
//   - PUT    /api/notifications/read            (settle the admin stream)
//   - DELETE /api/notification/:id              (remove one admin row)
//   - GET    /api/notifications/unread-count    (admin badge)
//   - GET    /api/user-notifications            (user stream)
//   - PUT    /api/user-notifications/read       (settle the user stream)
//   - GET    /api/user-notifications/unread-count
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sino99/cafe-safar-ver1/internal/repo"
	"github.com/sino99/cafe-safar-ver1/internal/utils"
)

// AdminNotifications returns the newest admin-stream rows.
func (h *Handlers) AdminNotifications(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	items, err := h.notifSvc.AdminList(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Ошибка при загрузке уведомлений")
		return
	}
	ok(c, http.StatusOK, gin.H{"notifications": items})
}

// MarkAdminNotificationsRead settles the admin stream.
func (h *Handlers) MarkAdminNotificationsRead(c *gin.Context) {
	n, err := h.notifSvc.MarkAdminRead(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при обновлении уведомлений")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "updated": n})
}

// DeleteNotification removes one admin-stream row.
func (h *Handlers) DeleteNotification(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Некорректный ID уведомления")
		return
	}
	if err := h.notifSvc.DeleteAdmin(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Уведомление не найдено")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при удалении уведомления")
		return
	}
	noContent(c)
}

// AdminUnreadCount backs the admin notification badge.
func (h *Handlers) AdminUnreadCount(c *gin.Context) {
	n, err := h.notifSvc.AdminUnreadCount(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при подсчете уведомлений")
		return
	}
	ok(c, http.StatusOK, gin.H{"count": n})
}

// UserNotifications returns the customer's stream.
func (h *Handlers) UserNotifications(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), 10)
	items, err := h.notifSvc.UserList(c.Request.Context(), p.UserID, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Ошибка при загрузке уведомлений")
		return
	}
	ok(c, http.StatusOK, gin.H{"notifications": items})
}

// MarkUserNotificationsRead settles the customer's stream and lets the hub
// fan the new badge count out to other open tabs.
func (h *Handlers) MarkUserNotificationsRead(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	n, err := h.notifSvc.MarkUserRead(c.Request.Context(), p.UserID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при обновлении уведомлений")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "updated": n})
}

// UserUnreadCount backs the customer's notification badge.
func (h *Handlers) UserUnreadCount(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	n, err := h.notifSvc.UserUnreadCount(c.Request.Context(), p.UserID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при подсчете уведомлений")
		return
	}
	ok(c, http.StatusOK, gin.H{"count": n})
}
