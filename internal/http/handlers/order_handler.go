// Order HTTP handlers.
//
// Admin surface:
//   - GET  /api/orders                      (list, optional status filter)
//   - GET  /api/order/:id                   (order with tracking history)
//   - PUT  /api/order/:id/status            (status transition)
//   - POST /api/order/:id/verify-pickup     (hand-off code confirmation)
//
// Customer surface:
//   - POST /api/order                       (checkout)
//   - GET  /api/my-orders                   (own orders with history)
//   - GET  /api/my-order/:id                (one own order with history)
//   - GET  /api/active-orders               (own in-flight orders)
//   - GET  /api/check-updates               (polling fallback)
//   - GET  /api/order/:id/remaining-time    (readiness countdown)
//
// Status fields in responses always carry both the canonical value and the
// derived display value, so clients never re-derive the pickup vocabulary.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sino99/cafe-safar-ver1/internal/domain"
	"github.com/sino99/cafe-safar-ver1/internal/services"
)

//
// DTOs
//

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	CustomerName  string            `json:"customerName" binding:"required"`
	CustomerPhone string            `json:"customerPhone" binding:"required"`
	OrderType     string            `json:"orderType" binding:"required"`
	Address       string            `json:"address"`
	PaymentMethod string            `json:"paymentMethod"`
	Comments      string            `json:"comments"`
	Items         domain.OrderItems `json:"items" binding:"required"`
	TotalPrice    float64           `json:"totalPrice" binding:"required"`
}

// UpdateStatusRequest names the next status; display vocabulary is accepted
// for pickup orders. Message optionally overrides the tracking entry text.
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Message string `json:"message"`
}

// VerifyPickupRequest carries the hand-off code the customer presented.
type VerifyPickupRequest struct {
	Code string `json:"code" binding:"required"`
}

//
// Helpers
//

// orderID parses the :id path parameter.
func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Некорректный ID заказа")
		return 0, false
	}
	return uint(id), true
}

// parseSince reads the polling cursor: a millisecond epoch or RFC 3339.
func parseSince(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

//
// Customer handlers
//

// CreateOrder validates and persists a checkout.
func (h *Handlers) CreateOrder(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Заполните все обязательные поля")
		return
	}

	order, err := h.orderSvc.Create(c.Request.Context(), p.UserID, services.CreateOrderInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		OrderType:     domain.OrderType(req.OrderType),
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		Comments:      req.Comments,
		Items:         req.Items,
		TotalPrice:    req.TotalPrice,
	})
	switch {
	case errors.Is(err, services.ErrEmptyOrder):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Заказ пуст или заполнен не полностью")
		return
	case errors.Is(err, services.ErrInvalidOrderType):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Некорректный тип заказа")
		return
	case errors.Is(err, services.ErrAddressRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Укажите адрес доставки")
		return
	case errors.Is(err, services.ErrTotalMismatch):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Сумма заказа не совпадает с позициями")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "Ошибка при создании заказа")
		return
	}

	resp := gin.H{
		"success": true,
		"orderId": order.ID,
		"order":   services.NewOrderView(*order),
	}
	if order.PickupCode != nil {
		resp["pickupCode"] = *order.PickupCode
	}
	ok(c, http.StatusCreated, resp)
}

// MyOrders returns the customer's orders with their tracking history.
func (h *Handlers) MyOrders(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	orders, err := h.orderSvc.ListForUser(c.Request.Context(), p.UserID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Ошибка при загрузке заказов")
		return
	}
	ok(c, http.StatusOK, gin.H{"orders": orders})
}

// MyOrder returns one of the customer's orders with tracking history.
func (h *Handlers) MyOrder(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	id, okID := orderID(c)
	if !okID {
		return
	}
	order, err := h.orderSvc.GetForUser(c.Request.Context(), id, p.UserID)
	if errors.Is(err, services.ErrOrderNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Заказ не найден")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при загрузке заказа")
		return
	}
	ok(c, http.StatusOK, order)
}

// ActiveOrders returns the customer's in-flight orders.
func (h *Handlers) ActiveOrders(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	orders, err := h.orderSvc.ActiveForUser(c.Request.Context(), p.UserID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Ошибка при загрузке заказов")
		return
	}
	ok(c, http.StatusOK, gin.H{"orders": orders})
}

// CheckUpdates is the polling fallback for clients without a live channel.
// since accepts a millisecond epoch or RFC 3339 timestamp.
func (h *Handlers) CheckUpdates(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	since, okS := parseSince(c.Query("since"))
	if !okS {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Некорректный параметр since")
		return
	}
	updates, err := h.orderSvc.CheckUpdates(c.Request.Context(), p.UserID, since)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Ошибка при проверке обновлений")
		return
	}
	ok(c, http.StatusOK, gin.H{
		"hasUpdates": len(updates) > 0,
		"orders":     updates,
		"timestamp":  time.Now().UTC().UnixMilli(),
	})
}

// RemainingTime returns the readiness countdown for one of the customer's
// orders.
func (h *Handlers) RemainingTime(c *gin.Context) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Требуется авторизация")
		return
	}
	id, okID := orderID(c)
	if !okID {
		return
	}
	rem, err := h.orderSvc.Remaining(c.Request.Context(), id, p.UserID)
	if errors.Is(err, services.ErrOrderNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Заказ не найден")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при расчете времени")
		return
	}
	ok(c, http.StatusOK, rem)
}

//
// Admin handlers
//

// ListOrders returns all orders, optionally filtered by status. The filter
// accepts display vocabulary the same way transitions do.
func (h *Handlers) ListOrders(c *gin.Context) {
	var statusFilter *domain.Status
	if raw := c.Query("status"); raw != "" {
		// The filter can arrive in pickup display vocabulary.
		s, err := domain.ParseStatus(raw, domain.OrderTypePickup)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "Некорректный статус")
			return
		}
		statusFilter = &s
	}

	orders, err := h.orderSvc.List(c.Request.Context(), statusFilter)
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

// GetOrder returns one order with its tracking history.
func (h *Handlers) GetOrder(c *gin.Context) {
	id, okID := orderID(c)
	if !okID {
		return
	}
	order, err := h.orderSvc.GetWithHistory(c.Request.Context(), id)
	if errors.Is(err, services.ErrOrderNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Заказ не найден")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при загрузке заказа")
		return
	}
	ok(c, http.StatusOK, order)
}

// UpdateOrderStatus moves an order through its lifecycle.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, okID := orderID(c)
	if !okID {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Укажите статус")
		return
	}

	change, err := h.orderSvc.SetStatus(c.Request.Context(), id, req.Status, req.Message)
	switch {
	case errors.Is(err, domain.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeInvalidStatus, "Некорректный статус")
		return
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Заказ не найден")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при обновлении статуса")
		return
	}

	resp := gin.H{
		"success":        true,
		"status":         change.Canonical,
		"display_status": change.DisplayStatus,
	}
	if change.EstimatedTime != nil {
		resp["estimatedTime"] = *change.EstimatedTime
	}
	ok(c, http.StatusOK, resp)
}

// VerifyPickup confirms the hand-off code and finalizes the order.
func (h *Handlers) VerifyPickup(c *gin.Context) {
	id, okID := orderID(c)
	if !okID {
		return
	}
	var req VerifyPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Введите код самовывоза")
		return
	}

	receipt, err := h.orderSvc.VerifyPickup(c.Request.Context(), id, req.Code)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Заказ не найден")
		return
	case errors.Is(err, services.ErrNotPickupOrder):
		fail(c, http.StatusBadRequest, ErrCodeNotPickup, "Заказ не является самовывозом")
		return
	case errors.Is(err, services.ErrPickupCodeMismatch):
		fail(c, http.StatusBadRequest, ErrCodeCodeMismatch, "Неверный код самовывоза")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Ошибка при проверке кода")
		return
	}

	ok(c, http.StatusOK, gin.H{
		"success":        true,
		"customerName":   receipt.CustomerName,
		"display_status": receipt.DisplayStatus,
	})
}
